package application

import (
	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/order/domain"
	"context"

	"go.opentelemetry.io/otel/attribute"
)

const defaultMigrationBatch = 200

// MigrationReport 一次迁移的统计
type MigrationReport struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Unknown int `json:"unknown"` // 无法识别的写法，保持原样等待人工处理
}

// MigratePaymentMethods 按 id 游标分批把历史支付方式改写为规范值。
// 每行的改写是带条件的 UPDATE，与新订单并发执行也是安全的，重复运行是幂等的。
func (s *Orders) MigratePaymentMethods(ctx context.Context, batch int) (MigrationReport, error) {
	ctx, span := s.tracer.Start(ctx, "orders.MigratePaymentMethods")
	defer span.End()
	if batch <= 0 {
		batch = defaultMigrationBatch
	}

	var report MigrationReport
	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			return report, fail(span, err)
		}
		rows, err := s.orders.ListLegacyPayments(ctx, afterID, batch)
		if err != nil {
			return report, fail(span, err)
		}
		for _, row := range rows {
			report.Scanned++
			afterID = row.OrderID

			to, ok := domain.NormalizePaymentMethod(row.Raw)
			if !ok {
				report.Unknown++
				logger.Ctx(ctx).Warn().Str("order_id", row.OrderID).Str("payment_method", row.Raw).Msg("unrecognized payment method left untouched")
				continue
			}
			changed, err := s.orders.RewritePayment(ctx, row.OrderID, row.Raw, to)
			if err != nil {
				return report, fail(span, err)
			}
			if changed {
				report.Updated++
			}
		}
		if len(rows) < batch {
			break
		}
	}

	span.SetAttributes(attribute.Int("migration.scanned", report.Scanned), attribute.Int("migration.updated", report.Updated),
		attribute.Int("migration.unknown", report.Unknown))
	logger.Ctx(ctx).Info().Int("scanned", report.Scanned).Int("updated", report.Updated).Int("unknown", report.Unknown).
		Msg("payment method migration finished")
	return report, nil
}
