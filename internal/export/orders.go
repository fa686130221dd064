package export

import (
	"context"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bpmigrate/internal/brightpearl"
	"github.com/bpmigrate/internal/csvio"
	"github.com/bpmigrate/internal/logging"
	"github.com/bpmigrate/internal/model"
)

type OrderOptions struct {
	Department int
	// Limit caps the number of orders processed. Zero means all.
	Limit int
	Dir   string
}

type OrderStats struct {
	Listed   int
	Exported int
	Skipped  int
	Rows     int
}

// Orders exports every order of the department to orders.csv, one row per
// order line. Orders that cannot be fetched are logged and skipped.
func (e *Exporter) Orders(ctx context.Context, opts OrderOptions) (OrderStats, error) {
	defer logging.Timing(e.log, "export orders")()
	var stats OrderStats

	dept := opts.Department
	if dept == 0 {
		dept = DefaultDepartment
	}
	ids, err := e.src.OrderIDs(ctx, dept)
	if err != nil {
		return stats, eris.Wrapf(err, "export: list orders of department %d", dept)
	}
	stats.Listed = len(ids)
	ids = limit(ids, opts.Limit)
	e.log.Info("orders listed",
		zap.Int("department", dept), zap.Int("found", stats.Listed), zap.Int("processing", len(ids)))

	var rows []model.Row
	for i, id := range ids {
		if i > 0 && i%progressEvery == 0 {
			e.log.Info("export progress", zap.Int("done", i), zap.Int("total", len(ids)))
		}
		o, err := e.src.Order(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Skipped++
			e.log.Warn("skipping order", zap.String("order_id", id), zap.Error(err))
			continue
		}
		stats.Exported++
		rows = append(rows, orderRows(o)...)
	}
	stats.Rows = len(rows)

	if err := csvio.WriteTable(filepath.Join(opts.Dir, OrdersFile), model.OrderColumns, rows); err != nil {
		return stats, eris.Wrapf(err, "export: write %s", OrdersFile)
	}
	e.log.Info("orders exported",
		zap.Int("orders", stats.Exported), zap.Int("skipped", stats.Skipped),
		zap.Int("rows", stats.Rows), zap.String("dir", opts.Dir))
	return stats, nil
}

// orderRows flattens an order into one row per order line, in row id order.
func orderRows(o brightpearl.Order) []model.Row {
	base := orderBase(o)

	ids := make([]string, 0, len(o.OrderRows))
	for id := range o.OrderRows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessNumeric(ids[i], ids[j]) })

	out := make([]model.Row, 0, len(ids))
	for _, id := range ids {
		line := o.OrderRows[id]
		row := make(model.Row, len(model.OrderColumns))
		for k, v := range base {
			row[k] = v
		}
		rv := line.RowValue
		row["Item name"] = line.ProductName.String()
		row["Order row SKU"] = line.ProductSku.String()
		row["Quantity"] = line.Quantity.Magnitude.String()
		row["Product ID"] = line.ProductID.String()
		row["Order list price"] = line.ProductPrice.Value.String()
		row["Row net"] = rv.RowNet.Value.String()
		row["Row tax"] = rv.RowTax.Value.String()
		row["Row gross"] = rowGross(rv.RowNet.Value, rv.RowTax.Value)
		row["Item tax class"] = rv.TaxCode.String()
		row["Tax Rate"] = rv.TaxRate.String()
		out = append(out, row)
	}
	return out
}

// orderBase holds the columns shared by every line of an order.
func orderBase(o brightpearl.Order) model.Row {
	invoice := ""
	if len(o.Invoices) > 0 {
		invoice = o.Invoices[0].InvoiceReference.String()
	}
	d, b := o.Parties.Delivery, o.Parties.Billing
	return model.Row{
		"Order ID":               o.ID.String(),
		"Order Type":             o.OrderTypeCode.String(),
		"Status":                 o.OrderStatus.Name.String(),
		"Payment Status":         o.OrderPaymentStatus.String(),
		"Invoice":                invoice,
		"Ref":                    o.Reference.String(),
		"Tax status":             o.State.Tax.String(),
		"Date created":           o.CreatedOn.String(),
		"Currency":               o.Currency.OrderCurrencyCode.String(),
		"Exchange rate":          o.Currency.ExchangeRate.String(),
		"Delivery name":          d.AddressFullName.String(),
		"Delivery company":       d.CompanyName.String(),
		"Delivery street":        d.AddressLine1.String(),
		"Delivery suburb":        d.AddressLine2.String(),
		"Delivery city":          d.AddressLine3.String(),
		"Delivery state":         d.AddressLine4.String(),
		"Delivery postcode":      d.PostalCode.String(),
		"Delivery country":       d.Country.String(),
		"Delivery telephone":     d.Telephone.String(),
		"Delivery mobile":        d.MobileTelephone.String(),
		"Delivery email":         d.Email.String(),
		"Billing name":           b.AddressFullName.String(),
		"Billing company":        b.CompanyName.String(),
		"Billing Street":         b.AddressLine1.String(),
		"Billing Suburb":         b.AddressLine2.String(),
		"Billing City":           b.AddressLine3.String(),
		"Billing State":          b.AddressLine4.String(),
		"Billing Postcode":       b.PostalCode.String(),
		"Billing Country":        b.Country.String(),
		"Billing telephone":      b.Telephone.String(),
		"Billing mobile":         b.MobileTelephone.String(),
		"Billing email":          b.Email.String(),
		"Contact ID":             b.ContactID.String(),
		"Shipping Method Id":     o.Delivery.ShippingMethodID.String(),
		"Stock Status Code":      o.StockStatusCode.String(),
		"Allocation Status Code": o.AllocationStatus.String(),
		"Shipping Status Code":   o.ShippingStatusCode.String(),
	}
}

// rowGross is net plus tax. A blank amount counts as zero; an amount that is
// not a number leaves the gross blank.
func rowGross(net, tax brightpearl.Text) string {
	var sum float64
	for _, v := range []brightpearl.Text{net, tax} {
		if strings.TrimSpace(string(v)) == "" {
			continue
		}
		f, ok := v.Float()
		if !ok {
			return ""
		}
		sum += f
	}
	sum = math.Round(sum*1e4) / 1e4
	return strconv.FormatFloat(sum, 'f', -1, 64)
}

func lessNumeric(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}
