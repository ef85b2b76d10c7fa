package users

import (
	"context"
	"crypto/subtle"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnknownRole        = errors.New("user has an unknown role")
	ErrSchema             = errors.New("users file schema mismatch")
)

const (
	colUsername       = "Usuario"
	colPassword       = "Contrasena"
	colFirstNames     = "Nombres"
	colPaternalName   = "ApellidoPaterno"
	colMaternalName   = "ApellidoMaterno"
	colRole           = "TipoUsuario"
	bcryptPrefixCount = 4
)

var requiredColumns = []string{colUsername, colPassword, colFirstNames, colPaternalName, colMaternalName, colRole}

// Account is the identity a successful login yields. FullName is what the
// reimbursement records store as the insured name.
type Account struct {
	Username string
	FullName string
	Role     contractx.Role
}

func (a Account) Caller() contractx.Caller {
	return contractx.Caller{Name: a.FullName, Role: a.Role}
}

type userRow struct {
	username string
	password string
	fullName string
	role     string
}

// Directory authenticates against the users CSV. The file is re-read on
// every login so edits apply without a restart.
type Directory struct {
	path string
}

func NewDirectory(path string) (*Directory, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("users file path is required")
	}
	return &Directory{path: path}, nil
}

func (d *Directory) Login(ctx context.Context, username, password string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Account{}, ErrInvalidCredentials
	}

	rows, err := d.load()
	if err != nil {
		return Account{}, err
	}

	for _, row := range rows {
		if row.username != username {
			continue
		}
		if !passwordMatches(row.password, password) {
			break
		}
		role, ok := contractx.ParseRole(row.role)
		if !ok {
			log.Warn().Str("user", username).Str("role", row.role).Msg("login rejected: unknown role")
			return Account{}, fmt.Errorf("%w: %q", ErrUnknownRole, row.role)
		}
		return Account{Username: row.username, FullName: row.fullName, Role: role}, nil
	}

	return Account{}, ErrInvalidCredentials
}

func (d *Directory) load() ([]userRow, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("open users file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read users header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, raw := range header {
		index[strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrSchema, c)
		}
	}

	var rows []userRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read users row %d: %w", line, err)
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d fields, want %d", ErrSchema, line, len(rec), len(header))
		}
		field := func(col string) string { return strings.TrimSpace(rec[index[col]]) }

		rows = append(rows, userRow{
			username: field(colUsername),
			password: rec[index[colPassword]],
			fullName: fullName(field(colFirstNames), field(colPaternalName), field(colMaternalName)),
			role:     field(colRole),
		})
	}
	return rows, nil
}

func fullName(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcryptHash(s string) bool {
	if len(s) < bcryptPrefixCount {
		return false
	}
	switch s[:bcryptPrefixCount] {
	case "$2a$", "$2b$", "$2y$":
		return true
	default:
		return false
	}
}

// HashPassword produces a bcrypt hash suitable for the Contrasena column.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
