package compiler

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/iocplan/internal/ir"
)

// Load error codes, shared with the CLI.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No catalog files found
	ErrCodeLoadFailed    = "E004" // CUE load or file read failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeCompileFailed = "E008" // Catalog compilation failed
)

// LoadResult is a catalog compiled from a directory.
type LoadResult struct {
	Catalog  *ir.Catalog
	CUEFiles []string
	HCLFiles []string
	Hash     string // ir.CatalogHash of Catalog
}

// FileCount returns the number of catalog files loaded.
func (r *LoadResult) FileCount() int {
	return len(r.CUEFiles) + len(r.HCLFiles)
}

// LoadError represents an error that occurred while loading a catalog.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadDir compiles every *.cue and *.hcl file under dir into one catalog.
// The CUE files form a single package instance; HCL files are compiled one
// by one in lexical path order and merged after it.
func LoadDir(dir string) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog directory: %v", err), Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, hclFiles, err := FindCatalogFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err), Err: err}
	}
	if len(cueFiles) == 0 && len(hclFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no catalog files found in %s", dir)}
	}

	var parts []*ir.Catalog
	if len(cueFiles) > 0 {
		c, err := loadCUE(dir)
		if err != nil {
			return nil, err
		}
		parts = append(parts, c)
	}
	for _, path := range hclFiles {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err), Err: err}
		}
		c, err := CompileHCL(src, path)
		if err != nil {
			return nil, convertCompileError(err, path)
		}
		parts = append(parts, c)
	}

	catalog := Merge(parts...)
	hash, err := ir.CatalogHash(catalog)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Err: err}
	}

	slog.Debug("catalog loaded",
		"dir", dir,
		"cue_files", len(cueFiles),
		"hcl_files", len(hclFiles),
		"types", len(catalog.Types),
		"bindings", len(catalog.Bindings),
		"hash", hash,
	)

	return &LoadResult{
		Catalog:  catalog,
		CUEFiles: cueFiles,
		HCLFiles: hclFiles,
		Hash:     hash,
	}, nil
}

func loadCUE(dir string) (*ir.Catalog, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err), Err: inst.Err}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err), Err: err}
	}

	c, err := CompileCatalog(value)
	if err != nil {
		return nil, convertCompileError(err, dir)
	}
	return c, nil
}

// FindCatalogFiles returns the .cue and .hcl file paths directly inside
// dir in lexical order. Subdirectories are not searched.
func FindCatalogFiles(dir string) (cueFiles, hclFiles []string, err error) {
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".cue":
			cueFiles = append(cueFiles, path)
		case ".hcl":
			hclFiles = append(hclFiles, path)
		}
		return nil
	})
	return cueFiles, hclFiles, err
}

// convertCompileError wraps a compiler error in a LoadError, keeping the
// source position in the message.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{Code: ErrCodeCompileFailed, Message: compileErr.Error(), Err: err}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s: %v", context, err), Err: err}
}
