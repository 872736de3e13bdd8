package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"addrparser/internal/batch"
	"addrparser/internal/config"
	"addrparser/internal/domain"
	"addrparser/internal/logging"
	"addrparser/internal/repository/hris"
	"addrparser/internal/xlsxexport"
)

// env is the shared state of one CLI invocation.
type env struct {
	cfg    *config.Config
	db     *sqlx.DB
	closer io.Closer
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	closer := logging.Setup(&cfg.Log)

	db, err := hris.NewDB(&cfg.HRIS)
	if err != nil {
		closer.Close()
		return nil, err
	}
	return &env{cfg: cfg, db: db, closer: closer}, nil
}

func (e *env) Close() {
	e.db.Close()
	e.closer.Close()
}

func (e *env) driver() *batch.Driver {
	return batch.NewDriver(hris.NewAddressParser(e.db), batch.DriverConfig{
		PaceDelay:   e.cfg.Batch.PaceDelay,
		CallTimeout: e.cfg.Batch.CallTimeout,
	})
}

// runBatch parses reqs in a fresh session and writes the workbook to out.
// An empty out picks the default file name in the current directory.
func (e *env) runBatch(ctx context.Context, kind domain.SessionKind, reqs []domain.ParseRequest, out string) error {
	d := e.driver()
	s := d.NewSession(kind)
	defer s.Close()

	if _, err := s.Add(reqs); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Đang xử lý %d địa chỉ...\n", len(reqs))

	summary, err := d.ProcessAll(ctx, s, batch.RunOptions{})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Hoàn tất: %d thành công, %d thất bại\n", summary.Done, summary.Failed)
	if summary.Canceled {
		fmt.Fprintln(os.Stderr, "Đã dừng trước khi xử lý hết danh sách")
	}

	rows := xlsxexport.BuildReport(kind, s.Items())
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "Không có kết quả để xuất")
		return nil
	}
	if out == "" {
		out = xlsxexport.BuildFilename(kind, time.Now())
	}
	if err := writeWorkbook(out, kind, rows); err != nil {
		return err
	}
	log.Info().Str("file", out).Int("rows", len(rows)).Msg("addrparse: workbook written")
	fmt.Fprintf(os.Stderr, "Đã xuất %d dòng ra %s\n", len(rows), out)
	return nil
}

func writeWorkbook(path string, kind domain.SessionKind, rows []xlsxexport.Row) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return xlsxexport.Write(f, kind, rows)
}
