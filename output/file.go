package output

import (
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/pkg/errors"
)

var reIndexSuffix = regexp.MustCompile(`\.(\d+)$`)

// FileWriter saves a downloaded body.
type FileWriter struct {
	fullPath string
}

func NewFileWriter(url *url.URL, options *Options) *FileWriter {
	var fullPath string

	if options.OutputFile == "" {
		name := filepath.Base(url.Path)
		if name == "/" || name == "." {
			name = "index"
		}
		fullPath = fmt.Sprintf("./%s", name)
	} else {
		fullPath = options.OutputFile
	}

	if !options.Overwrite {
		fullPath = makeNonOverlappingFilename(fullPath)
	}

	return &FileWriter{
		fullPath: fullPath,
	}
}

func makeNonOverlappingFilename(path string) string {
	_, err := os.Stat(path)
	if err == nil {
		newPath := reIndexSuffix.ReplaceAllStringFunc(path, func(index string) string {
			i, err := strconv.Atoi(strings.TrimPrefix(index, "."))
			if err != nil {
				panic(err)
			}
			i++
			return fmt.Sprintf(".%d", i)
		})
		if path == newPath {
			path = fmt.Sprintf("%s.%d", path, 1)
		} else {
			path = newPath
		}
		path = makeNonOverlappingFilename(path)
	}
	return path
}

// Download writes body to the target file and reports its size on
// progress.
func (f *FileWriter) Download(body []byte, progress io.Writer) error {
	if err := ioutil.WriteFile(f.fullPath, body, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", f.fullPath)
	}
	fmt.Fprintf(progress, "Downloaded %s to %s\n", bytefmt.ByteSize(uint64(len(body))), f.fullPath)
	return nil
}

func (f *FileWriter) Filename() string {
	return filepath.Base(f.fullPath)
}

func (f *FileWriter) Path() string {
	return f.fullPath
}
