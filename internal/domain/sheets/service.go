package sheets

import (
	"context"
	"log/slog"

	apperrors "github.com/yanqian/phenology/pkg/errors"
)

// Client fetches one tab of a spreadsheet.
type Client interface {
	FetchSheet(ctx context.Context, spreadsheetID string, sheetNumber int) (Sheet, error)
}

// Service turns spreadsheet tabs into lookup tables.
type Service interface {
	Vernaculars(ctx context.Context, sheetNumber int) (map[string][]VernacularName, error)
	SRanks(ctx context.Context, sheetNumber int) (map[string]TaxonRow, error)
	ConservationStatus(ctx context.Context, sheetNumber int) (map[string]TaxonRow, error)
	Signups(ctx context.Context, sheetNumber int) (map[string][]Signup, error)
}

type service struct {
	cfg    Config
	client Client
	logger *slog.Logger
}

// NewService wires the sheets domain. Unset sheet ids fall back to DefaultSheetIDs.
func NewService(cfg Config, client Client, logger *slog.Logger) Service {
	ids := &cfg.IDs
	if ids.Signups == "" {
		ids.Signups = DefaultSheetIDs.Signups
	}
	if ids.Vernacular == "" {
		ids.Vernacular = DefaultSheetIDs.Vernacular
	}
	if ids.TaxonSRank == "" {
		ids.TaxonSRank = DefaultSheetIDs.TaxonSRank
	}
	if ids.ConservationStatus == "" {
		ids.ConservationStatus = DefaultSheetIDs.ConservationStatus
	}
	return &service{cfg: cfg, client: client, logger: logger.With("component", "sheets.service")}
}

func (s *service) Vernaculars(ctx context.Context, sheetNumber int) (map[string][]VernacularName, error) {
	sheet, err := s.fetch(ctx, s.cfg.IDs.Vernacular, sheetNumber)
	if err != nil {
		return nil, err
	}
	out, rejected := vernacularsByTaxon(sheet.Records())
	s.logRejected("vernacular", rejected)
	return out, nil
}

func (s *service) SRanks(ctx context.Context, sheetNumber int) (map[string]TaxonRow, error) {
	sheet, err := s.fetch(ctx, s.cfg.IDs.TaxonSRank, sheetNumber)
	if err != nil {
		return nil, err
	}
	out, rejected := rowsByScientificName(sheet.Records())
	s.logRejected("srank", rejected)
	return out, nil
}

func (s *service) ConservationStatus(ctx context.Context, sheetNumber int) (map[string]TaxonRow, error) {
	sheet, err := s.fetch(ctx, s.cfg.IDs.ConservationStatus, sheetNumber)
	if err != nil {
		return nil, err
	}
	out, rejected := rowsByScientificName(sheet.Records())
	s.logRejected("conservation_status", rejected)
	return out, nil
}

func (s *service) Signups(ctx context.Context, sheetNumber int) (map[string][]Signup, error) {
	sheet, err := s.fetch(ctx, s.cfg.IDs.Signups, sheetNumber)
	if err != nil {
		return nil, err
	}
	return signupsByKey(sheet.Rows), nil
}

func (s *service) fetch(ctx context.Context, id string, sheetNumber int) (Sheet, error) {
	if sheetNumber < 0 {
		return Sheet{}, apperrors.Wrap(apperrors.CodeInvalidInput, "sheet number cannot be negative", nil)
	}
	sheet, err := s.client.FetchSheet(ctx, id, sheetNumber)
	if err != nil {
		if apperrors.CodeOf(err) != "" {
			return Sheet{}, err
		}
		return Sheet{}, apperrors.Wrap(apperrors.CodeUpstreamError, "spreadsheet fetch failed", err)
	}
	s.logger.Debug("sheet fetched", "spreadsheet", id, "sheet", sheetNumber, "title", sheet.Properties.Title, "rows", len(sheet.Rows))
	return sheet, nil
}

func (s *service) logRejected(table string, rejected int) {
	if rejected > 0 {
		s.logger.Warn("sheet rows rejected", "table", table, "rows", rejected)
	}
}
