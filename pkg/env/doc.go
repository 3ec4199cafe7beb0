package env

/*
Package env holds resolved environments and everything that happens to them
after resolution.

It handles:
  - The EnvironmentDescriptor and its ToolSet
  - Fingerprinting descriptors (blake3 over canonical CBOR)
  - Persisting descriptors in a Store and tracking the active one
  - Discovering binary, library and include paths inside a built prefix
  - Generating activation scripts for POSIX shells

Basic Usage:

    store := env.NewStore("")
    if err := store.Save(desc, ""); err != nil {
        return err
    }

    script, err := env.ActivationScript(desc, env.NewPrefix("/home/me/.uenv/envs/dev/result"))
    if err != nil {
        return err
    }
    fmt.Print(script)

Prefix Layouts:

A built environment is a single prefix with a flat layout (bin/, lib/,
include/, lib/pkgconfig/), the way nix buildEnv lays out its output.
Prefixes with an FHS layout (usr/bin, usr/lib, ...) are supported through
LayoutFor("fhs").
*/
