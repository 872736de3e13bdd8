package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"addrparser/internal/domain"
	"addrparser/internal/port"
)

// DateLayout is the calendar date format accepted for intake-date lookups.
const DateLayout = "2006-01-02"

// msgParserUnreachable is placed in NewAddress of the fallback result when the
// parser cannot be reached.
const msgParserUnreachable = "Không thể kết nối đến cơ sở dữ liệu"

// LookupService performs single, non-batched lookups against the HRIS.
type LookupService interface {
	// ParseAddress parses one address. When the parser is unreachable it
	// returns a level-0 fallback result together with the error.
	ParseAddress(ctx context.Context, address string) (*domain.ParseResult, error)
	// EmployeesByDate lists employees whose intake date is date (YYYY-MM-DD).
	// No match is an empty list, not an error.
	EmployeesByDate(ctx context.Context, date string) ([]domain.Employee, error)
	// EmployeeByID returns one employee or domain.ErrEmployeeNotFound.
	EmployeeByID(ctx context.Context, personID string) (*domain.Employee, error)
}

type lookupService struct {
	parser    port.AddressParser
	directory port.EmployeeDirectory
}

// NewLookupService creates a new LookupService.
func NewLookupService(parser port.AddressParser, directory port.EmployeeDirectory) LookupService {
	return &lookupService{parser: parser, directory: directory}
}

func (s *lookupService) ParseAddress(ctx context.Context, address string) (*domain.ParseResult, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, domain.ErrEmptyAddress
	}

	res, err := s.parser.Parse(ctx, address)
	if err == nil && res == nil {
		err = domain.ErrMalformedResult
	}
	if err != nil {
		log.Error().Err(err).Msg("lookupService.ParseAddress: parser call failed")
		if !errors.Is(err, domain.ErrParserUnavailable) && !errors.Is(err, domain.ErrMalformedResult) {
			err = fmt.Errorf("%w: %w", domain.ErrParserUnavailable, err)
		}
		return domain.FallbackResult(address, msgParserUnreachable), err
	}
	return res, nil
}

func (s *lookupService) EmployeesByDate(ctx context.Context, date string) ([]domain.Employee, error) {
	day, err := ParseIntakeDate(date)
	if err != nil {
		return nil, err
	}

	employees, err := s.directory.ListByIntakeDate(ctx, day)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("lookupService.EmployeesByDate: directory call failed")
		return nil, directoryError(err)
	}
	if employees == nil {
		employees = []domain.Employee{}
	}
	return employees, nil
}

func (s *lookupService) EmployeeByID(ctx context.Context, personID string) (*domain.Employee, error) {
	id, err := ParsePersonID(personID)
	if err != nil {
		return nil, err
	}

	emp, err := s.directory.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			return nil, err
		}
		log.Error().Err(err).Int("person_id", id).Msg("lookupService.EmployeeByID: directory call failed")
		return nil, directoryError(err)
	}
	return emp, nil
}

// directoryError makes sure err is classified as a directory failure.
func directoryError(err error) error {
	if errors.Is(err, domain.ErrDirectoryUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrDirectoryUnavailable, err)
}

// ParseIntakeDate validates a YYYY-MM-DD calendar date.
func ParseIntakeDate(date string) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, domain.ErrInvalidDate
	}
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, domain.ErrInvalidDate
	}
	return day, nil
}

// ParsePersonID validates an employee identifier.
func ParsePersonID(personID string) (int, error) {
	personID = strings.TrimSpace(personID)
	if personID == "" {
		return 0, domain.ErrInvalidEmployeeID
	}
	id, err := strconv.Atoi(personID)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidEmployeeID
	}
	return id, nil
}
