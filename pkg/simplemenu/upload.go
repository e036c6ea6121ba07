package simplemenu

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tendant/simple-menu/pkg/simplemenu/objectkey"
)

// DefaultMaxUploadBytes caps the size of a single uploaded file.
const DefaultMaxUploadBytes int64 = 10 << 20

// AllowedExtensions lists the accepted upload file extensions.
var AllowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

func validateExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !AllowedExtensions[ext] {
		return &ValidationError{
			Field:  "file",
			Reason: fmt.Sprintf("%q is not an allowed image type", filename),
			Err:    ErrUnsupportedExtension,
		}
	}
	return nil
}

func validateSize(filename string, size, limit int64) error {
	if size > limit {
		return &ValidationError{
			Field:  "file",
			Reason: fmt.Sprintf("%q is %d bytes, limit is %d", filename, size, limit),
			Err:    ErrFileTooLarge,
		}
	}
	return nil
}

// readLimited reads the file, enforcing the cap even when no size was declared.
func readLimited(f UploadFile, limit int64) ([]byte, error) {
	if err := validateSize(f.Filename, f.Size, limit); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(f.Reader, limit+1))
	if err != nil {
		return nil, &ValidationError{Field: "file", Reason: "failed to read upload", Err: err}
	}
	if err := validateSize(f.Filename, int64(len(data)), limit); err != nil {
		return nil, err
	}
	return data, nil
}

// ResolveNames derives the final base name of every file in a batch.
// Without a custom name each file keeps its own name minus the extension.
// A custom name is used as is for a single file and suffixed with a 1-based
// position ("Latte_1", "Latte_2") for several.
func ResolveNames(customName string, filenames []string) ([]string, error) {
	customName = strings.TrimSpace(customName)
	if customName != "" {
		if err := objectkey.ValidateName(customName); err != nil {
			return nil, &ValidationError{Field: "name", Reason: "invalid custom name", Err: err}
		}
	}

	names := make([]string, len(filenames))
	for i, filename := range filenames {
		switch {
		case customName == "":
			names[i] = objectkey.NameFromFilename(filename)
			if names[i] == "" {
				return nil, &ValidationError{Field: "file", Reason: fmt.Sprintf("cannot derive a name from %q", filename)}
			}
		case len(filenames) == 1:
			names[i] = customName
		default:
			names[i] = fmt.Sprintf("%s_%d", customName, i+1)
		}
	}
	return names, nil
}

func validateName(field, name string) error {
	if err := objectkey.ValidateName(name); err != nil {
		return &ValidationError{Field: field, Reason: "invalid menu name", Err: err}
	}
	return nil
}
