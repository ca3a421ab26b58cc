package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/atelier/internal/schema"
)

// LoadProfile compiles the governance profile from a directory of CUE
// files. An empty dir selects the embedded standard profile.
func LoadProfile(dir string) (*schema.Table, error) {
	if dir == "" {
		return schema.DefaultTable(), nil
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("profile directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("error accessing profile directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, &ExitError{Code: ExitCommandError, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	profile, err := schema.CompileProfile(value)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "compiling profile", err)
	}
	return schema.NewTable(profile), nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
