// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/ai-fdocs/fdocs"
	"github.com/ai-fdocs/fdocs/engine"
)

const initShortHelp = `Bootstrap a new fdocs.toml in the current directory`
const initLongHelp = `
Writes a starter fdocs.toml at the project root, inferring the ecosystem
profile (rust/node) from whichever lockfile is present. Does not overwrite
an existing fdocs.toml.
`

type initCommand struct {
	profile string
}

func (cmd *initCommand) Name() string      { return "init" }
func (cmd *initCommand) Args() string      { return "" }
func (cmd *initCommand) ShortHelp() string { return initShortHelp }
func (cmd *initCommand) LongHelp() string  { return initLongHelp }

func (cmd *initCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.profile, "profile", "", "ecosystem profile: rust or node (default: inferred from lockfile)")
}

func (cmd *initCommand) Run(c *fdocs.Ctx, args []string) error {
	if len(args) > 0 {
		return errors.Errorf("init takes no positional arguments")
	}

	configPath := filepath.Join(c.WorkingDir, fdocs.ConfigName)
	if ok, _ := fdocs.IsRegular(configPath); ok {
		return errors.Errorf("%s already exists", configPath)
	}

	profile := fdocs.Profile(cmd.profile)
	if profile == "" {
		if inferred, ok := engine.InferProfile(c.WorkingDir); ok {
			profile = inferred
		} else {
			profile = fdocs.ProfileRust
		}
	}

	content := fmt.Sprintf("profile = %q\n\n[settings]\n# output_dir, max_file_size_kb, docs_source and sync_mode all have\n# ecosystem-appropriate defaults; override here if needed.\n\n[packages]\n# example = { repo = \"owner/name\" }\n", profile)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		return fdocs.NewError(fdocs.KindIO, "", "writing "+configPath, err)
	}

	fmt.Fprintf(c.Out, "wrote %s (profile=%s)\n", configPath, profile)
	return nil
}
