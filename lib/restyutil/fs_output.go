package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// Output receives the rendered exchanges of a client.
type Output interface {
	Write(name string, contents string)
}

// DumpExchanges writes every exchange of client to output once its response has been
// read. Files are named after their order and the request method, "0003-post.http".
func DumpExchanges(client *resty.Client, output Output) {
	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		n := atomic.AddUint64(&counter, 1)
		name := fmt.Sprintf("%04d-%s.http", n, strings.ToLower(res.Request.Method))
		output.Write(name, FormatExchange(res))
		return nil
	})
}

// FilesystemOutput writes every exchange to its own file in a directory.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput empties (or creates) dir.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(name string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, name), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write exchange dump", "name", name, "err", err)
	}
}
