package nix

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/arc-language/uenv/pkg/core"
	"github.com/arc-language/uenv/pkg/env"
)

// attrPathPattern matches dotted attribute paths, allowing quoted components
// such as rust-bin.nightly."2020-04-01".default
var attrPathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_'-]*(\.([A-Za-z_][A-Za-z0-9_'-]*|"[^"$\\]+"))*$`)

// pathPattern matches paths that can be written as nix path literals
var pathPattern = regexp.MustCompile(`^[A-Za-z0-9._/+-]+$`)

const templates = `
{{- define "prelude" -}}
# Generated by uenv for environment {{.Name}}.
# Fingerprint: {{.Fingerprint}}
let
  overlays = [
{{- range .Overlays}}
    {{.}}
{{- end}}
  ];
  pkgs = import {{.Nixpkgs}} {
    inherit overlays;
{{- if .System}}
    system = {{.System}};
{{- end}}
  };
{{- if .Toolchain}}
  toolchain = {{.Toolchain}};
{{- end}}
in
{{- end -}}

{{- define "packages" -}}
{{- if .Toolchain}}
    toolchain
{{- end}}
{{- range .Inputs}}
    {{.}}
{{- end}}
{{- end -}}

{{- define "shell" -}}
{{template "prelude" .}}
pkgs.mkShell {
  name = {{.DrvName}};
  packages = [
{{- template "packages" .}}
  ];
  shellHook = ''
{{.ShellHook}}  '';
}
{{end -}}

{{- define "env" -}}
{{template "prelude" .}}
pkgs.buildEnv {
  name = {{.DrvName}};
  paths = [
{{- template "packages" .}}
  ];
  pathsToLink = [ "/bin" "/lib" "/lib64" "/include" "/share" ];
  extraOutputsToInstall = [ "dev" "lib" ];
}
{{end -}}
`

var tmpl = template.Must(template.New("nix").Parse(templates))

// renderData holds nix expressions, already escaped, for the templates
type renderData struct {
	Name        string
	Fingerprint string
	DrvName     string
	Overlays    []string
	Nixpkgs     string
	System      string
	Toolchain   string
	Inputs      []string
	ShellHook   string
}

// RenderShell renders a shell.nix expression entering the environment
func RenderShell(desc *env.Descriptor) (string, error) {
	return render("shell", desc)
}

// RenderEnv renders a buildEnv expression producing a single prefix with
// every tool of the environment linked in
func RenderEnv(desc *env.Descriptor) (string, error) {
	return render("env", desc)
}

func render(name string, desc *env.Descriptor) (string, error) {
	data, err := newRenderData(desc)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s expression: %w", name, err)
	}
	return buf.String(), nil
}

func newRenderData(desc *env.Descriptor) (*renderData, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	data := &renderData{
		Name:        desc.Name,
		Fingerprint: desc.Fingerprint,
		DrvName:     nixString("uenv-" + desc.Name),
		Nixpkgs:     "<nixpkgs>",
	}

	for _, o := range desc.Overlays {
		if o.Import == "" {
			continue
		}
		expr, err := importExpr(o.Import)
		if err != nil {
			return nil, fmt.Errorf("overlay %q: %w", o.Name, err)
		}
		data.Overlays = append(data.Overlays, "("+expr+")")
	}

	if desc.Nixpkgs != nil && desc.Nixpkgs.URL != "" {
		data.Nixpkgs = fetchTarball(desc.Nixpkgs.URL, desc.Nixpkgs.SHA256)
	}
	if desc.System != "" {
		if _, err := ParsePlatform(desc.System); err != nil {
			return nil, err
		}
		data.System = nixString(desc.System)
	}

	if tc := desc.Toolchain; tc != nil {
		expr, err := pkgExpr(tc.Ref)
		if err != nil {
			return nil, fmt.Errorf("toolchain: %w", err)
		}
		if len(tc.Spec.Extensions) > 0 {
			exts := make([]string, 0, len(tc.Spec.Extensions))
			for _, ext := range tc.Spec.Extensions {
				exts = append(exts, nixString(ext))
			}
			expr = fmt.Sprintf("%s.override { extensions = [ %s ]; }", expr, strings.Join(exts, " "))
		}
		data.Toolchain = expr
	}

	for _, tool := range desc.Tools {
		// toolchain entries are provided by the toolchain derivation
		if core.IsToolchainOrigin(tool.Origin) {
			continue
		}
		expr, err := pkgExpr(tool)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", tool.Name, err)
		}
		data.Inputs = append(data.Inputs, expr)
	}

	script, err := env.ActivationScript(desc, nil)
	if err != nil {
		return nil, err
	}
	data.ShellHook = indentedString(script, "    ")

	return data, nil
}

// pkgExpr returns the expression selecting a package: a pinned store path
// when one is set, the attribute under pkgs otherwise
func pkgExpr(ref core.PackageRef) (string, error) {
	if ref.StorePath != "" {
		if err := ValidateStorePath(ref.StorePath); err != nil {
			return "", err
		}
		return fmt.Sprintf("(builtins.storePath %s)", nixString(ref.StorePath)), nil
	}
	attr := ref.AttrPath()
	if !attrPathPattern.MatchString(attr) {
		return "", fmt.Errorf("invalid attribute path %q", attr)
	}
	wrapped := "pkgs." + attr
	if strings.Contains(attr, ".") {
		wrapped = "(" + wrapped + ")"
	}
	return wrapped, nil
}

// importExpr returns an expression importing an overlay from a URL or path
func importExpr(src string) (string, error) {
	if strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "http://") {
		return "import " + fetchTarball(src, ""), nil
	}
	if !pathPattern.MatchString(src) {
		return "", fmt.Errorf("overlay import %q is neither a URL nor a plain path", src)
	}
	if !strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "./") && !strings.HasPrefix(src, "../") {
		src = "./" + src
	}
	return "import " + src, nil
}

func fetchTarball(url, sha256 string) string {
	if sha256 == "" {
		return fmt.Sprintf("(builtins.fetchTarball %s)", nixString(url))
	}
	return fmt.Sprintf("(builtins.fetchTarball { url = %s; sha256 = %s; })", nixString(url), nixString(sha256))
}

// nixString quotes s as a double-quoted nix string
func nixString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "${", `\${`, "\n", `\n`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}

// indentedString escapes s for use inside a nix indented string and indents each line
func indentedString(s, indent string) string {
	r := strings.NewReplacer("''", "'''", "${", "''${")
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if line != "" {
			b.WriteString(indent)
			b.WriteString(r.Replace(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
