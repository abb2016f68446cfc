package application

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
)

const (
	OnConflictReject = "reject"
	OnConflictSkip   = "skip"
	OnConflictUpdate = "update"
)

// ImportMitra loads a mitra spreadsheet. Either every row is written or none is.
func (s *Service) ImportMitra(ctx context.Context, r io.Reader, req ImportRequest) (ImportResult, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format != ports.SheetFormatXLSX && format != ports.SheetFormatCSV {
		return ImportResult{}, fmt.Errorf("%w: file must be .xlsx or .csv", domain.ErrInvalidInput)
	}
	onConflict := strings.ToLower(strings.TrimSpace(req.OnConflict))
	switch onConflict {
	case "":
		onConflict = OnConflictReject
	case OnConflictReject, OnConflictSkip, OnConflictUpdate:
	default:
		return ImportResult{}, fmt.Errorf("%w: on_conflict must be reject, skip or update", domain.ErrInvalidInput)
	}

	rows, err := s.sheets.ReadMitra(r, format)
	if err != nil {
		return ImportResult{}, err
	}

	var (
		result    ImportResult
		rowErrors []domain.RowError
		candidate []ports.MitraSheetRow
		firstLine = make(map[string]int)
	)
	for _, row := range rows {
		m := row.Mitra
		m.Normalize()
		if m.JenisPetugas == "" {
			result.Skipped++
			continue
		}
		m.JenisPetugas = domain.NormalizeJenisPetugas(m.JenisPetugas)

		fieldErrs := m.FieldErrors()
		for _, fe := range fieldErrs {
			rowErrors = append(rowErrors, domain.RowError{
				Row:     row.Line,
				SobatID: m.SobatID,
				Field:   fe.Field,
				Message: fe.Message,
			})
		}
		if m.SobatID != "" {
			if line, dup := firstLine[m.SobatID]; dup {
				rowErrors = append(rowErrors, domain.RowError{
					Row:     row.Line,
					SobatID: m.SobatID,
					Field:   "sobat_id",
					Message: fmt.Sprintf("duplicates row %d", line),
				})
				continue
			}
			firstLine[m.SobatID] = row.Line
		}
		if len(fieldErrs) == 0 {
			candidate = append(candidate, ports.MitraSheetRow{Line: row.Line, Mitra: m})
		}
	}

	err = s.uow.RunInTransaction(ctx, func(ctx context.Context, tx ports.TxRepositories) error {
		ids := make([]string, 0, len(candidate))
		for _, row := range candidate {
			ids = append(ids, row.Mitra.SobatID)
		}
		existing, err := tx.Mitra.GetMany(ctx, ids)
		if err != nil {
			return err
		}

		var inserts, updates []domain.Mitra
		skipped := 0
		for _, row := range candidate {
			if _, ok := existing[row.Mitra.SobatID]; !ok {
				inserts = append(inserts, row.Mitra)
				continue
			}
			switch onConflict {
			case OnConflictSkip:
				skipped++
			case OnConflictUpdate:
				updates = append(updates, row.Mitra)
			default:
				rowErrors = append(rowErrors, domain.RowError{
					Row:     row.Line,
					SobatID: row.Mitra.SobatID,
					Field:   "sobat_id",
					Message: "already exists",
				})
			}
		}
		if len(rowErrors) > 0 {
			return &domain.ImportError{Rows: sortRowErrors(rowErrors)}
		}

		for _, m := range inserts {
			if err := tx.Mitra.Create(ctx, m); err != nil {
				return err
			}
		}
		for _, m := range updates {
			if err := tx.Mitra.Update(ctx, m); err != nil {
				return err
			}
		}
		result.Inserted = len(inserts)
		result.Updated = len(updates)
		result.Skipped += skipped
		return s.enqueue(ctx, tx, eventTypeMitraImported, "mitra", map[string]any{
			"inserted": result.Inserted,
			"updated":  result.Updated,
			"skipped":  result.Skipped,
		})
	})
	if err != nil {
		return ImportResult{}, err
	}

	logger().InfoContext(ctx, "mitra import applied",
		"operation", "import_mitra",
		"outcome", "success",
		"format", format,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"skipped", result.Skipped,
	)
	return result, nil
}

// sortRowErrors orders errors by row, keeping field order within a row.
func sortRowErrors(rows []domain.RowError) []domain.RowError {
	out := make([]domain.RowError, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Row < out[j].Row })
	return out
}
