package services

import (
	"context"
	"errors"
	"fmt"

	"cybertronic/internal/logging"
	"cybertronic/internal/metrics"
	"cybertronic/internal/models"
	"cybertronic/internal/repositories"

	"go.uber.org/zap"
)

// StockService applies the stock movements of paid sessions.
type StockService struct {
	products repositories.ProductRepository
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewStockService(products repositories.ProductRepository, m *metrics.Metrics, logger *zap.Logger) *StockService {
	return &StockService{products: products, metrics: m, log: logger}
}

// Reconcile decrements stock for every line of a session. Lines are processed in order and
// independently of each other. The returned error is non-nil only when some line failed for a
// transient reason; domain faults are reported in the StockReport.
func (s *StockService) Reconcile(ctx context.Context, sessionID string, lines []models.CartLine) (models.StockReport, error) {
	return s.Resume(ctx, sessionID, lines, models.StockReport{})
}

// Resume is Reconcile for a session that was partially processed before: lines whose previous
// outcome is final are carried over and only the rest are attempted again.
func (s *StockService) Resume(ctx context.Context, sessionID string, lines []models.CartLine, prev models.StockReport) (models.StockReport, error) {
	settled := make(map[int]models.LineResult, len(prev.Results))
	for _, r := range prev.Results {
		if r.Outcome != models.LineError {
			settled[r.Index] = r
		}
	}

	logger := logging.FromContext(ctx, s.log).With(zap.String("session_id", sessionID))
	var report models.StockReport
	var firstErr error

	for i, line := range lines {
		res, ok := settled[i]
		if !ok {
			res = s.applyLine(ctx, sessionID, i, line)
			s.metrics.StockLine(res.Outcome)
			switch res.Outcome {
			case models.LineFault:
				logger.Warn("stock_item_fault",
					zap.Int("line", i),
					zap.String("product_id", line.ProductID),
					zap.String("size", line.Size),
					zap.String("color", line.Color),
					zap.String("reason", res.Error),
				)
			case models.LineError:
				logger.Error("stock_item_error", zap.Int("line", i), zap.String("product_id", line.ProductID), zap.String("reason", res.Error))
				if firstErr == nil {
					firstErr = fmt.Errorf("line %d: %s", i, res.Error)
				}
			}
		}

		report.Results = append(report.Results, res)
		switch res.Outcome {
		case models.LineApplied, models.LineAlreadyApplied:
			report.Applied++
		case models.LineFault:
			report.Faults++
		case models.LineError:
			report.Errors++
		}
	}

	logger.Info("stock_reconciled",
		zap.Int("applied", report.Applied),
		zap.Int("faults", report.Faults),
		zap.Int("errors", report.Errors),
	)
	if report.Errors > 0 {
		return report, fmt.Errorf("stock reconciliation for %s: %d of %d lines failed: %w", sessionID, report.Errors, len(lines), firstErr)
	}
	return report, nil
}

func (s *StockService) applyLine(ctx context.Context, sessionID string, index int, line models.CartLine) models.LineResult {
	res := models.LineResult{
		Index:     index,
		ProductID: line.ProductID,
		Size:      line.Size,
		Color:     line.Color,
		Quantity:  line.Quantity,
	}

	remaining, applied, err := s.products.ApplyStockMovement(ctx, models.StockMovement{
		SessionID: sessionID,
		LineIndex: index,
		ProductID: line.ProductID,
		Size:      line.Size,
		Color:     line.Color,
		Quantity:  line.Quantity,
	})
	switch {
	case err == nil && applied:
		res.Outcome = models.LineApplied
		res.Remaining = &remaining
	case err == nil:
		res.Outcome = models.LineAlreadyApplied
		res.Remaining = &remaining
	case isStockFault(err):
		res.Outcome = models.LineFault
		res.Error = err.Error()
	default:
		res.Outcome = models.LineError
		res.Error = err.Error()
	}
	return res
}

func isStockFault(err error) bool {
	return errors.Is(err, models.ErrProductNotFound) ||
		errors.Is(err, models.ErrStockNotFound) ||
		errors.Is(err, models.ErrInsufficientStock) ||
		errors.Is(err, models.ErrInvalidQuantity)
}
