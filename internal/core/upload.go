package core

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx"

	"gwi.com/beauty-box/internal/store"
)

// UploadCategories are the only categories a bulk upload may add to a box.
var UploadCategories = []store.Category{
	store.CategoryWomen,
	store.CategoryMen,
	store.CategoryKids,
	store.CategorySkincare,
}

func uploadAllowed(c store.Category) bool {
	for _, a := range UploadCategories {
		if a == c {
			return true
		}
	}
	return false
}

// ParsedUpload holds the rows that parsed; Skipped counts the ones that did not.
type ParsedUpload struct {
	Products []store.Product
	Skipped  int
	Problems []string
}

type uploadRecord struct {
	Name        string `json:"name"`
	Price       any    `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// ParseProductFile reads a JSON, CSV or XLSX product list, chosen by extension.
// A file whose structure is wrong is a ValidationError; bad rows are only skipped.
func ParseProductFile(fileName string, data []byte) (*ParsedUpload, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".json":
		return parseJSONProducts(data)
	case ".csv":
		return parseCSVProducts(data)
	case ".xlsx":
		return parseXLSXProducts(data)
	default:
		return nil, invalid("unsupported file type: upload a .json, .csv or .xlsx file")
	}
}

func parseJSONProducts(data []byte) (*ParsedUpload, error) {
	data = bytes.TrimSpace(data)
	var records []uploadRecord
	if len(data) > 0 && data[0] == '{' {
		var one uploadRecord
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, invalid("invalid JSON file: " + err.Error())
		}
		records = []uploadRecord{one}
	} else if err := json.Unmarshal(data, &records); err != nil || records == nil {
		return nil, invalid("invalid JSON file: expected an array of products or a single product object")
	}

	out := &ParsedUpload{}
	for i, r := range records {
		price, err := parsePrice(r.Price)
		p, problem := buildUploadProduct(r.Name, price, err, r.Category, r.Description, r.Image)
		if problem != "" {
			out.Skipped++
			out.Problems = append(out.Problems, fmt.Sprintf("item %d: %s", i+1, problem))
			continue
		}
		out.Products = append(out.Products, p)
	}
	return out, nil
}

func parseCSVProducts(data []byte) (*ParsedUpload, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalid("invalid CSV file: " + err.Error())
		}
		rows = append(rows, rec)
	}
	return productsFromTable(rows, "CSV file")
}

func parseXLSXProducts(data []byte) (*ParsedUpload, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, invalid("invalid spreadsheet: " + err.Error())
	}
	if len(f.Sheets) == 0 {
		return nil, invalid("spreadsheet has no sheets")
	}
	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.String()
		}
		rows = append(rows, cells)
	}
	return productsFromTable(rows, "Spreadsheet")
}

// productsFromTable maps a header row plus data rows onto products.
func productsFromTable(rows [][]string, what string) (*ParsedUpload, error) {
	if len(rows) == 0 {
		return nil, invalid(what + " is empty")
	}
	col := make(map[string]int)
	for i, h := range rows[0] {
		if i == 0 {
			// spreadsheet tools prefix CSV exports with a UTF-8 byte order mark
			h = strings.TrimPrefix(h, "\ufeff")
		}
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	_, hasName := col["name"]
	_, hasPrice := col["price"]
	if !hasName || !hasPrice {
		return nil, invalid(what + " must have 'name' and 'price' columns")
	}

	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := &ParsedUpload{}
	for n, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		price, err := strconv.ParseFloat(get(row, "price"), 64)
		p, problem := buildUploadProduct(get(row, "name"), price, err, get(row, "category"), get(row, "description"), get(row, "image"))
		if problem != "" {
			out.Skipped++
			out.Problems = append(out.Problems, fmt.Sprintf("row %d: %s", n+2, problem))
			continue
		}
		out.Products = append(out.Products, p)
	}
	return out, nil
}

func buildUploadProduct(name string, price float64, priceErr error, category, description, image string) (store.Product, string) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return store.Product{}, "missing name"
	case priceErr != nil:
		return store.Product{}, fmt.Sprintf("%q has an invalid price", name)
	case price < 0:
		return store.Product{}, fmt.Sprintf("%q has a negative price", name)
	}
	return store.Product{
		Name:        name,
		Price:       roundCents(price),
		Category:    store.ParseCategory(category),
		Description: strings.TrimSpace(description),
		Image:       strings.TrimSpace(image),
		Source:      store.SourceUpload,
	}, ""
}

func parsePrice(v any) (float64, error) {
	switch p := v.(type) {
	case float64:
		return p, nil
	case string:
		return strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(p), "$"), 64)
	case nil:
		return 0, errors.New("missing price")
	default:
		return 0, fmt.Errorf("unsupported price type %T", v)
	}
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
