package env

import (
	"bytes"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ValidateInitStep checks that step parses as a shell command
func ValidateInitStep(step string) error {
	if strings.TrimSpace(step) == "" {
		return fmt.Errorf("init step is empty")
	}
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	if _, err := parser.Parse(strings.NewReader(step), "init-step"); err != nil {
		return fmt.Errorf("invalid init step %q: %w", step, err)
	}
	return nil
}

// quote quotes s as a single bash word
func quote(s string) (string, error) {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return "", fmt.Errorf("quoting %q: %w", s, err)
	}
	return q, nil
}

// ActivationScript renders a shell script that enters the environment.
// It exports UENV_NAME and UENV_FINGERPRINT, prepends the prefix search
// paths when prefix is non-nil, then runs the init steps in order.
func ActivationScript(desc *Descriptor, prefix *Prefix) (string, error) {
	if err := desc.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# uenv activation script for %s\n", desc.Name)

	exports := [][2]string{
		{"UENV_NAME", desc.Name},
		{"UENV_FINGERPRINT", desc.Fingerprint},
	}
	for _, kv := range exports {
		q, err := quote(kv[1])
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "export %s=%s\n", kv[0], q)
	}

	if prefix != nil {
		for _, v := range prefix.Variables() {
			q, err := quote(strings.Join(v.Paths, ":"))
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "export %s=%s${%s:+:$%s}\n", v.Name, q, v.Name, v.Name)
		}
	}

	for _, step := range desc.InitSteps {
		b.WriteString(step)
		b.WriteString("\n")
	}

	return formatScript(b.String())
}

// formatScript parses and reprints a script, failing on syntax errors
func formatScript(src string) (string, error) {
	parser := syntax.NewParser(syntax.KeepComments(true), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(src), "activate.sh")
	if err != nil {
		return "", fmt.Errorf("generated script does not parse: %w", err)
	}

	var buf bytes.Buffer
	if err := syntax.NewPrinter(syntax.Indent(2)).Print(&buf, file); err != nil {
		return "", fmt.Errorf("printing script: %w", err)
	}
	return buf.String(), nil
}
