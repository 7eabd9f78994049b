package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	humanize "github.com/dustin/go-humanize"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
	"golang.org/x/sync/errgroup"
)

const partFileName = "part-00000.parquet"

// Write persists a relation at location as directory-partitioned Parquet.
// Rows are grouped by the partitionBy column values; each group becomes
// one file under a "col=value" directory hierarchy. Partition columns are
// retained in row content as well, so read-back needs no path parsing.
//
// All files are written under a staging prefix first and only swapped
// into place once every partition has succeeded, so a failed run leaves
// any previous output at the destination intact.
func (e *LakeEngine) Write(rel *Relation, location string, mode WriteMode, partitionBy ...string) error {
	if mode == ErrorIfExists {
		existing, err := e.fs.ListFiles(location)
		if err == nil && len(existing) > 0 {
			return fmt.Errorf("destination is not empty: %s", location)
		}
	}

	groups := make(map[string][]Row)
	for _, row := range rel.Rows() {
		parts := make([]string, len(partitionBy))
		for i, col := range partitionBy {
			parts[i] = fmt.Sprintf("%s=%s", col, partitionValue(row[col]))
		}
		subdir := strings.Join(parts, "/")
		groups[subdir] = append(groups[subdir], row)
	}
	if len(groups) == 0 {
		// An empty relation still produces a readable destination
		groups[""] = nil
	}

	staging := strings.TrimSuffix(location, "/") + ".staging-" + uuid.NewString()[:8]

	var written int64
	g := new(errgroup.Group)
	g.SetLimit(e.maxConcurrency)
	for subdir, rows := range groups {
		subdir, rows := subdir, rows
		g.Go(func() error {
			target := e.fs.Join(staging, subdir, partFileName)
			n, err := e.writePartition(rel.Schema(), rows, target)
			if err != nil {
				return fmt.Errorf("writing partition %q of %s: %w", subdir, rel.Schema().Name, err)
			}
			atomic.AddInt64(&written, n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.fs.Delete(staging)
		return err
	}

	if mode == Overwrite {
		// Trailing slash keeps the prefix delete from touching the
		// sibling staging directory on prefix-based backends
		if err := e.fs.Delete(strings.TrimSuffix(location, "/") + "/"); err != nil {
			return err
		}
	}
	if err := e.fs.Rename(staging, location); err != nil {
		return err
	}

	log.Infof("Wrote %d rows (%s, %d partitions) to %s",
		rel.Len(), humanize.Bytes(uint64(written)), len(groups), location)
	return nil
}

func (e *LakeEngine) writePartition(schema Schema, rows []Row, filePath string) (int64, error) {
	out, err := e.fs.OpenWriter(filePath)
	if err != nil {
		return 0, err
	}
	cw := &countingWriter{w: out}
	pf := writerfile.NewWriterFile(cw)

	pw, err := writer.NewJSONWriter(schema.parquetSchema(), pf, 2)
	if err != nil {
		out.Close()
		return 0, err
	}

	for _, row := range rows {
		data, err := json.Marshal(projectRow(row, schema))
		if err != nil {
			out.Close()
			return 0, err
		}
		if err := pw.Write(string(data)); err != nil {
			out.Close()
			return 0, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		out.Close()
		return 0, err
	}
	if err := pf.Close(); err != nil {
		return 0, err
	}
	// The underlying writer uploads on Close for remote backends;
	// countingWriter tolerates a second Close if pf already closed it.
	return cw.n, cw.Close()
}

// ReadParquet reads every Parquet file under location back into a
// relation with the given schema.
func (e *LakeEngine) ReadParquet(location string, schema Schema) (*Relation, error) {
	files, err := e.fs.ListFiles(location)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0)
	for _, file := range files {
		if !strings.HasSuffix(file.Name, ".parquet") {
			continue
		}
		partRows, err := e.readParquetFile(file.Name, schema)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file.Name, err)
		}
		rows = append(rows, partRows...)
	}

	log.Debugf("Read %d rows of %s from %s", len(rows), schema.Name, location)
	return NewRelation(schema, rows), nil
}

func (e *LakeEngine) readParquetFile(filePath string, schema Schema) ([]Row, error) {
	src, err := e.fs.OpenReader(filePath, 0)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return nil, err
	}

	pf := buffer.NewBufferFileFromBytes(data)
	defer pf.Close()

	pr, err := reader.NewParquetReader(pf, schema.parquetSchema(), 2)
	if err != nil {
		return nil, err
	}
	defer pr.ReadStop()

	records, err := pr.ReadByNumber(int(pr.GetNumRows()))
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		// The reader materializes records as generated structs whose
		// field names are the library's variable-name form of the
		// column names. Round-trip through JSON and map them back.
		encoded, err := json.Marshal(record)
		if err != nil {
			return nil, err
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			return nil, err
		}

		row := make(Row, len(schema.Fields))
		for _, f := range schema.Fields {
			row[f.Name] = coerce(decoded[common.StringToVariableName(f.Name)], f.Type)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// projectRow narrows a row to the schema's columns for serialization.
func projectRow(row Row, schema Schema) map[string]interface{} {
	out := make(map[string]interface{}, len(schema.Fields))
	for _, f := range schema.Fields {
		out[f.Name] = row[f.Name]
	}
	return out
}

func partitionValue(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return "null"
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatInt(int64(n), 10)
	case string:
		return n
	}
	return fmt.Sprintf("%v", v)
}

func (s Schema) parquetSchema() string {
	type node struct {
		Tag    string `json:"Tag"`
		Fields []node `json:"Fields,omitempty"`
	}
	fields := make([]node, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = node{Tag: f.parquetTag()}
	}
	root := node{
		Tag:    "name=parquet_go_root, repetitiontype=REQUIRED",
		Fields: fields,
	}
	rendered, _ := json.Marshal(root)
	return string(rendered)
}

func (f Field) parquetTag() string {
	switch f.Type {
	case Int32:
		return fmt.Sprintf("name=%s, type=INT32, repetitiontype=OPTIONAL", f.Name)
	case Int64:
		return fmt.Sprintf("name=%s, type=INT64, repetitiontype=OPTIONAL", f.Name)
	case Double:
		return fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", f.Name)
	case Timestamp:
		return fmt.Sprintf("name=%s, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL", f.Name)
	}
	return fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", f.Name)
}

type countingWriter struct {
	w      io.WriteCloser
	n      int64
	closed bool
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func (c *countingWriter) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.w.Close()
}
