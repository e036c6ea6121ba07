package simplemenu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNames(t *testing.T) {
	tests := []struct {
		name       string
		customName string
		filenames  []string
		want       []string
		wantErr    bool
	}{
		{
			name:      "filename without extension",
			filenames: []string{"coffee.jpg"},
			want:      []string{"coffee"},
		},
		{
			name:      "several files keep their names",
			filenames: []string{"coffee.jpg", "tea.png"},
			want:      []string{"coffee", "tea"},
		},
		{
			name:       "custom name for a single file",
			customName: "Latte",
			filenames:  []string{"IMG_0001.jpg"},
			want:       []string{"Latte"},
		},
		{
			name:       "custom name for several files is numbered",
			customName: "Latte",
			filenames:  []string{"a.jpg", "b.jpg"},
			want:       []string{"Latte_1", "Latte_2"},
		},
		{
			name:      "windows path is stripped",
			filenames: []string{`C:\Users\me\mocha.jpeg`},
			want:      []string{"mocha"},
		},
		{
			name:       "custom name with separator",
			customName: "a/b",
			filenames:  []string{"a.jpg"},
			wantErr:    true,
		},
		{
			name:       "reserved custom name",
			customName: "_meta",
			filenames:  []string{"a.jpg"},
			wantErr:    true,
		},
		{
			name:      "filename without a usable name",
			filenames: []string{".jpg"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveNames(tt.customName, tt.filenames)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateExtension(t *testing.T) {
	for _, name := range []string{"a.jpg", "a.JPEG", "a.png", "a.gif"} {
		assert.NoError(t, validateExtension(name), name)
	}
	for _, name := range []string{"a.bmp", "a", "a.jpg.exe"} {
		err := validateExtension(name)
		assert.ErrorIs(t, err, ErrUnsupportedExtension, name)
	}
}

func TestReadLimited(t *testing.T) {
	data, err := readLimited(UploadFile{Filename: "a.jpg", Reader: strings.NewReader("12345")}, 5)
	require.NoError(t, err)
	assert.Equal(t, "12345", string(data))

	_, err = readLimited(UploadFile{Filename: "a.jpg", Reader: strings.NewReader("123456")}, 5)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = readLimited(UploadFile{Filename: "a.jpg", Size: 6, Reader: strings.NewReader("")}, 5)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
