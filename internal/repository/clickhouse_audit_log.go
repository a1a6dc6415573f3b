package repository

import (
	"context"
	"fmt"

	"SignalForge/internal/domain/models"
	pkgch "SignalForge/pkg/clickhouse"
	applogger "SignalForge/pkg/logger"
)

// AuditSchema creates the per-decision audit table.
var AuditSchema = []string{`
        CREATE TABLE IF NOT EXISTS signal_audit (
            run_id          String,
            mode            LowCardinality(String),
            symbol          LowCardinality(String),
            direction       LowCardinality(String),
            reason          LowCardinality(String),
            category        LowCardinality(String),
            combined_score  Float64,
            confidence      Float64,
            placeholder     UInt8,
            at              DateTime64(3, 'UTC')
        )
        ENGINE = MergeTree
        PARTITION BY toYYYYMM(at)
        ORDER BY (symbol, at)
        TTL toDateTime(at) + INTERVAL 180 DAY
    `}

const insertAudit = `
        INSERT INTO signal_audit
            (run_id, mode, symbol, direction, reason, category, combined_score, confidence, placeholder, at)
    `

// CHAuditLog writes one row per symbol decision so "why didn't X appear"
// can be answered after the fact.
type CHAuditLog struct {
	ch *pkgch.Client
	l  *applogger.Logger
}

func NewCHAuditLog(ch *pkgch.Client) *CHAuditLog {
	return &CHAuditLog{ch: ch, l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (a *CHAuditLog) SetLogger(l *applogger.Logger) {
	if l != nil {
		a.l = l
	}
}

func (a *CHAuditLog) RecordOutcomes(ctx context.Context, run *models.RunResult, outcomes []models.Outcome) error {
	rows := auditRows(run, outcomes)
	if err := a.ch.InsertBatch(ctx, insertAudit, rows); err != nil {
		a.l.Error("clickhouse audit insert error",
			applogger.String("run_id", run.RunID),
			applogger.Int("rows", len(rows)),
			applogger.Error(err),
		)
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

func auditRows(run *models.RunResult, outcomes []models.Outcome) [][]interface{} {
	var placeholder uint8
	if run.Placeholder {
		placeholder = 1
	}
	rows := make([][]interface{}, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, []interface{}{
			run.RunID,
			string(run.Mode),
			o.Symbol,
			string(o.Direction),
			string(o.Reason),
			string(o.Category),
			o.CombinedScore,
			o.Confidence,
			placeholder,
			o.At.UTC(),
		})
	}
	return rows
}
