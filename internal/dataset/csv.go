package dataset

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/Additional-Code/shopdata/pkg/errorbank"
)

// Write persists every table of d under dir, creating dir if needed and
// replacing existing files.
func Write(dir string, d *Dataset) error {
	if d == nil {
		return errorbank.Internal("nil dataset")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errorbank.IO("create output directory", errorbank.WithCause(err), errorbank.WithDetail("dir", dir))
	}

	writes := []struct {
		table string
		rows  any
	}{
		{TableUsers, &d.Users},
		{TableProducts, &d.Products},
		{TableOrders, &d.Orders},
		{TableOrderItems, &d.OrderItems},
		{TablePayments, &d.Payments},
	}
	for _, w := range writes {
		if err := writeFile(filepath.Join(dir, FileName(w.table)), w.rows); err != nil {
			return err
		}
	}
	return nil
}

// Read loads all five tables from dir.
func Read(dir string) (*Dataset, error) {
	d := &Dataset{}
	reads := []struct {
		table string
		rows  any
	}{
		{TableUsers, &d.Users},
		{TableProducts, &d.Products},
		{TableOrders, &d.Orders},
		{TableOrderItems, &d.OrderItems},
		{TablePayments, &d.Payments},
	}
	for _, r := range reads {
		if err := readFile(filepath.Join(dir, FileName(r.table)), Headers[r.table], r.rows); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func writeFile(path string, rows any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errorbank.IO("create "+filepath.Base(path), errorbank.WithCause(err), errorbank.WithDetail("path", path))
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errorbank.IO("close "+filepath.Base(path), errorbank.WithCause(cerr), errorbank.WithDetail("path", path))
		}
	}()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return errorbank.IO("write "+filepath.Base(path), errorbank.WithCause(err), errorbank.WithDetail("path", path))
	}
	return nil
}

func readFile(path string, header []string, out any) error {
	name := filepath.Base(path)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errorbank.IO(fmt.Sprintf("missing input file %s", name), errorbank.WithCause(err), errorbank.WithDetail("path", path))
		}
		return errorbank.IO("open "+name, errorbank.WithCause(err), errorbank.WithDetail("path", path))
	}
	defer f.Close()

	got, err := gocsv.DefaultCSVReader(f).Read()
	if err != nil {
		return errorbank.Malformed("read header of "+name, errorbank.WithCause(err), errorbank.WithDetail("path", path))
	}
	if !slices.Equal(got, header) {
		return errorbank.Malformed("unexpected header in "+name,
			errorbank.WithDetail("path", path),
			errorbank.WithDetail("want", strings.Join(header, ",")),
			errorbank.WithDetail("got", strings.Join(got, ",")),
		)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return errorbank.IO("rewind "+name, errorbank.WithCause(err), errorbank.WithDetail("path", path))
	}

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		return errorbank.Malformed("decode "+name, errorbank.WithCause(err), errorbank.WithDetail("path", path))
	}
	return nil
}
