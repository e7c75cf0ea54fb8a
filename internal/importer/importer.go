package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"restaurant-segments/internal/domain"
	customersvc "restaurant-segments/internal/service/customer"
)

// orderNamespace scopes the deterministic order ids derived from order_ref.
var orderNamespace = uuid.MustParse("6c8f4e2a-3b1d-4f5e-9a7c-2d0b1e8f6a41")

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"}

type OrderRecorder interface {
	RecordOrder(ctx context.Context, restaurantID string, in customersvc.OrderInput) (*customersvc.OrderResult, error)
}

// Result counts what a run did.
type Result struct {
	Orders   int
	Skipped  int
	Triggers int
}

// CSVImporter reads order-history exports with one row per line item and
// records every order through the customer service.
type CSVImporter struct {
	reader       *csv.Reader
	recorder     OrderRecorder
	restaurantID string
}

func NewCSVImporter(r io.Reader, recorder OrderRecorder, restaurantID string) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:       csvr,
		recorder:     recorder,
		restaurantID: restaurantID,
	}
}

type pendingOrder struct {
	ref  string
	line int
	in   customersvc.OrderInput
}

// Run parses every row, groups line items by order_ref and records the
// orders oldest first. Orders imported by an earlier run are skipped.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	var res Result
	headers, err := i.reader.Read()
	if err != nil {
		return res, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"order_ref", "placed_at", "item_name", "price"} {
		if _, ok := index[required]; !ok {
			return res, fmt.Errorf("missing column %q", required)
		}
	}

	var (
		orders []*pendingOrder
		byRef  = map[string]*pendingOrder{}
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)

		ref := pick(record, index, "order_ref")
		if ref == "" {
			continue
		}
		item, err := parseItem(record, index)
		if err != nil {
			return res, fmt.Errorf("line %d: %w", line, err)
		}

		if current, ok := byRef[ref]; ok {
			current.in.Items = append(current.in.Items, item)
			continue
		}
		in, err := i.parseOrder(ref, record, index)
		if err != nil {
			return res, fmt.Errorf("line %d: %w", line, err)
		}
		in.Items = []customersvc.LineItemInput{item}
		p := &pendingOrder{ref: ref, line: line, in: in}
		orders = append(orders, p)
		byRef[ref] = p
	}

	sort.SliceStable(orders, func(a, b int) bool {
		return orders[a].in.PlacedAt.Before(*orders[b].in.PlacedAt)
	})

	for _, p := range orders {
		out, err := i.recorder.RecordOrder(ctx, i.restaurantID, p.in)
		if errors.Is(err, domain.ErrAlreadyExists) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("order %q (line %d): %w", p.ref, p.line, err)
		}
		res.Orders++
		res.Triggers += len(out.Triggers)
	}
	return res, nil
}

func (i *CSVImporter) parseOrder(ref string, record []string, index map[string]int) (customersvc.OrderInput, error) {
	placed, err := parseTime(pick(record, index, "placed_at"))
	if err != nil {
		return customersvc.OrderInput{}, err
	}
	in := customersvc.OrderInput{
		OrderID:       uuid.NewSHA1(orderNamespace, []byte(i.restaurantID+"/"+ref)).String(),
		CustomerName:  pick(record, index, "customer_name"),
		CustomerPhone: pick(record, index, "customer_phone"),
		CustomerEmail: pick(record, index, "customer_email"),
		PlacedAt:      &placed,
		Source:        strings.ToLower(pick(record, index, "source")),
	}
	if raw := pick(record, index, "guest_count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return in, fmt.Errorf("guest_count %q: %w", raw, err)
		}
		in.GuestCount = n
	}
	if raw := pick(record, index, "order_total"); raw != "" {
		total, err := parseMoney(raw)
		if err != nil {
			return in, fmt.Errorf("order_total %q: %w", raw, err)
		}
		in.TotalAmount = &total
	}
	return in, nil
}

func parseItem(record []string, index map[string]int) (customersvc.LineItemInput, error) {
	item := customersvc.LineItemInput{
		Name:     pick(record, index, "item_name"),
		Category: pick(record, index, "category"),
		Quantity: 1,
	}
	price, err := parseMoney(pick(record, index, "price"))
	if err != nil {
		return item, fmt.Errorf("price: %w", err)
	}
	item.Price = price
	if raw := pick(record, index, "quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil {
			return item, fmt.Errorf("quantity %q: %w", raw, err)
		}
		item.Quantity = q
	}
	if raw := pick(record, index, "is_combo"); raw != "" {
		combo, err := strconv.ParseBool(raw)
		if err != nil {
			return item, fmt.Errorf("is_combo %q: %w", raw, err)
		}
		item.IsCombo = combo
	}
	return item, nil
}

// parseMoney accepts plain decimals with an optional currency symbol or
// thousands separators, e.g. "₹1,250.50".
func parseMoney(raw string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	return d.Round(2).InexactFloat64(), nil
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("placed_at %q: unrecognized time format", raw)
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
