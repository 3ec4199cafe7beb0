package core

import (
	"errors"
	"testing"
)

func TestResolutionErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ResolutionError
		want string
	}{
		{
			name: "unknown tools are quoted",
			err:  NewUnknownTool("cargo-edit", "niv"),
			want: `tool(s) not defined by base index or overlays: "cargo-edit", "niv"`,
		},
		{
			name: "empty name stays visible",
			err:  NewUnknownTool(""),
			want: `tool(s) not defined by base index or overlays: ""`,
		},
		{
			name: "unsupported extensions",
			err:  NewUnsupportedExtension("stable", "miri"),
			want: `channel "stable" does not advertise extension(s): "miri"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolutionErrorIs(t *testing.T) {
	t.Parallel()

	if !errors.Is(NewUnknownTool("x"), ErrUnknownTool) {
		t.Error("UnknownTool does not match ErrUnknownTool")
	}
	if errors.Is(NewUnknownTool("x"), ErrUnsupportedExtension) {
		t.Error("UnknownTool matches ErrUnsupportedExtension")
	}
	if !errors.Is(NewUnsupportedExtension("stable", "miri"), ErrUnsupportedExtension) {
		t.Error("UnsupportedExtension does not match its sentinel")
	}
}
