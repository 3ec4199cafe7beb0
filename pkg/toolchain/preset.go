package toolchain

// defaultPresets are the mutually exclusive toolchain setups offered out of the box
func defaultPresets() []Preset {
	return []Preset{
		{
			Name:        "rust-stable",
			Description: "stable Rust with clippy and rustfmt",
			Spec:        Spec{Channel: "stable", Extensions: []string{"clippy", "rustfmt"}},
		},
		{
			Name:        "rust-nightly",
			Description: "latest nightly Rust with clippy and rustfmt",
			Spec:        Spec{Channel: "nightly", Extensions: []string{"clippy", "rustfmt"}},
		},
		{
			Name:        "rust-nightly-ide",
			Description: "nightly Rust with sources and analysis data for editors",
			Spec:        Spec{Channel: "nightly", Extensions: []string{"rust-src", "rust-analysis", "rls-preview"}},
		},
		{
			Name:        "go",
			Description: "Go from nixpkgs",
			Spec:        Spec{Channel: "go"},
		},
	}
}
