package hris

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"addrparser/internal/domain"
	"addrparser/internal/port"
)

// parseProcedureQuery calls the normalization procedure. Only the first row
// of its result set is used.
const parseProcedureQuery = `EXEC SP_ParseAddressToNew @StayingAddress = @StayingAddress`

// parseRow mirrors the procedure's result columns. Every column may be NULL.
type parseRow struct {
	OriginalAddress   sql.NullString `db:"Original_Address"`
	AddressPart       sql.NullString `db:"Address_Part"`
	OriginalWard      sql.NullString `db:"Original_Ward"`
	OriginalDistrict  sql.NullString `db:"Original_District"`
	OriginalCity      sql.NullString `db:"Original_City"`
	ProvinceIDNew     sql.NullInt64  `db:"Province_ID_NEW"`
	ProvinceNameNew   sql.NullString `db:"Province_Name_NEW"`
	WardIDNew         sql.NullInt64  `db:"Ward_ID_NEW"`
	WardNameNew       sql.NullString `db:"Ward_Name_NEW"`
	NewAddress        sql.NullString `db:"New_Address"`
	ParseSuccessLevel sql.NullInt64  `db:"Parse_Success_Level"`
}

func (r *parseRow) toResult() *domain.ParseResult {
	return &domain.ParseResult{
		OriginalAddress:   r.OriginalAddress.String,
		AddressPart:       r.AddressPart.String,
		OriginalWard:      r.OriginalWard.String,
		OriginalDistrict:  r.OriginalDistrict.String,
		OriginalCity:      r.OriginalCity.String,
		ProvinceIDNew:     int(r.ProvinceIDNew.Int64),
		ProvinceNameNew:   r.ProvinceNameNew.String,
		WardIDNew:         int(r.WardIDNew.Int64),
		WardNameNew:       r.WardNameNew.String,
		NewAddress:        r.NewAddress.String,
		ParseSuccessLevel: domain.ClampSuccessLevel(int(r.ParseSuccessLevel.Int64)),
	}
}

type addressParser struct {
	db *sqlx.DB
}

// NewAddressParser creates an AddressParser backed by SP_ParseAddressToNew.
// Columns the procedure returns beyond parseRow are ignored.
func NewAddressParser(db *sqlx.DB) port.AddressParser {
	return &addressParser{db: db.Unsafe()}
}

func (p *addressParser) Parse(ctx context.Context, address string) (*domain.ParseResult, error) {
	rows, err := p.db.QueryxContext(ctx, parseProcedureQuery, sql.Named("StayingAddress", address))
	if err != nil {
		return nil, fmt.Errorf("addressParser.Parse: %w: %w", domain.ErrParserUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("addressParser.Parse: %w: %w", domain.ErrParserUnavailable, err)
		}
		return nil, fmt.Errorf("addressParser.Parse: %w", domain.ErrMalformedResult)
	}

	var row parseRow
	if err := rows.StructScan(&row); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("addressParser.Parse: %w: %w", domain.ErrParserUnavailable, err)
		}
		return nil, fmt.Errorf("addressParser.Parse: %w: %w", domain.ErrMalformedResult, err)
	}

	res := row.toResult()
	if res.OriginalAddress == "" {
		res.OriginalAddress = address
	}
	return res, nil
}
