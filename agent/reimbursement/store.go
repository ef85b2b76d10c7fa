package reimbursement

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrSchema = errors.New("record file schema mismatch")

const (
	colID               = "N_Solicitud"
	colInsured          = "NomUsuario"
	colBeneficiary      = "NomBeneficiario"
	colCategory         = "TipoGasto"
	colAmount           = "Monto"
	colStatus           = "Estado"
	colRegistrationDate = "FechaRegistro"
	colResponseDate     = "FechaRespuesta"
	colTeamResponse     = "RespuestaEquipo"
)

// Columns is the canonical column order written by SaveAll.
var Columns = []string{
	colID,
	colInsured,
	colBeneficiary,
	colCategory,
	colAmount,
	colStatus,
	colRegistrationDate,
	colResponseDate,
	colTeamResponse,
}

// Store is the persistence contract for reimbursement requests.
// Every call is a full read or a full overwrite; callers serialize access.
type Store interface {
	LoadAll(ctx context.Context) ([]Request, error)
	SaveAll(ctx context.Context, records []Request) error
}

// CSVStore keeps all requests in a single comma-separated file.
type CSVStore struct {
	path string
}

func NewCSVStore(path string) (*CSVStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("record file path is required")
	}
	return &CSVStore{path: path}, nil
}

func (s *CSVStore) Path() string {
	return s.path
}

func (s *CSVStore) LoadAll(ctx context.Context) ([]Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := s.SaveAll(ctx, nil); err != nil {
			return nil, fmt.Errorf("initialize record file: %w", err)
		}
		return []Request{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open record file: %w", err)
	}
	defer f.Close()

	return decodeRecords(f)
}

func (s *CSVStore) SaveAll(ctx context.Context, records []Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp record file: %w", err)
	}
	defer os.Remove(tmp.Name())

	mode := os.FileMode(0o644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp record file: %w", err)
	}

	if err := encodeRecords(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp record file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace record file: %w", err)
	}
	return nil
}

func encodeRecords(w io.Writer, records []Request) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.ID,
			r.InsuredName,
			r.BeneficiaryName,
			r.ExpenseCategory,
			r.Amount.String(),
			string(r.Status),
			r.RegistrationDate,
			r.ResponseDate,
			r.TeamResponse,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func decodeRecords(r io.Reader) ([]Request, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []Request{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	records := make([]Request, 0, 32)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d fields, want %d", ErrSchema, line, len(row), len(header))
		}

		field := func(col string) string {
			i, ok := index[col]
			if !ok {
				return ""
			}
			return row[i]
		}

		amount, err := parseAmount(field(colAmount))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: invalid amount %q", ErrSchema, line, field(colAmount))
		}

		responseDate := field(colResponseDate)
		if responseDate == "" {
			responseDate = NoResponseDate
		}

		records = append(records, Request{
			ID:               field(colID),
			InsuredName:      field(colInsured),
			BeneficiaryName:  field(colBeneficiary),
			ExpenseCategory:  field(colCategory),
			Amount:           amount,
			Status:           Status(field(colStatus)),
			RegistrationDate: field(colRegistrationDate),
			ResponseDate:     responseDate,
			TeamResponse:     field(colTeamResponse),
		})
	}
	return records, nil
}

// headerIndex maps known columns to their position. Files written before the
// response date column was declared may omit it or carry it last.
func headerIndex(header []string) (map[string]int, error) {
	known := make(map[string]struct{}, len(Columns))
	for _, c := range Columns {
		known[c] = struct{}{}
	}

	index := make(map[string]int, len(header))
	for i, raw := range header {
		col := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		if _, ok := known[col]; !ok {
			return nil, fmt.Errorf("%w: unknown column %q", ErrSchema, col)
		}
		if _, dup := index[col]; dup {
			return nil, fmt.Errorf("%w: duplicated column %q", ErrSchema, col)
		}
		index[col] = i
	}

	for _, c := range Columns {
		if c == colResponseDate {
			continue
		}
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrSchema, c)
		}
	}
	return index, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
