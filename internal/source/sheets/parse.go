package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"insighthub/internal/core"
)

type workbook struct {
	categories   []core.Category
	accounts     []core.Account
	cards        []core.CreditCard
	transactions []core.Transaction
}

// rowError reports a transaction row that could not be read. Rows are
// 1-based like the spreadsheet UI.
type rowError struct {
	Row int
	Err error
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(x))
		}
	}
	return out
}

var currencySymbols = strings.NewReplacer("R$", "", "US$", "", "$", "", "€", "", "£", "")

// parseAmount accepts spreadsheet-formatted money such as "R$ -1.234,56".
func parseAmount(s string) (int64, error) {
	return core.ParseDecimalToCents(currencySymbols.Replace(s))
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func isHeader(cols []string, first string) bool {
	return len(cols) > 0 && strings.EqualFold(cols[0], first)
}

// parseCategories reads ID, Name, Color, Type, Parent. Parent may be an id
// or a category name.
func parseCategories(rows [][]interface{}) ([]core.Category, error) {
	var out []core.Category
	parents := map[int]string{}
	for i, row := range rows {
		cols := toStrings(row)
		if i == 0 && isHeader(cols, "id") {
			continue
		}
		if safeGet(cols, 0) == "" && safeGet(cols, 1) == "" {
			continue
		}
		id, err := strconv.ParseInt(safeGet(cols, 0), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("row %d: invalid category id %q", i+1, safeGet(cols, 0))
		}
		typ := core.CategoryExpense
		switch strings.ToLower(safeGet(cols, 3)) {
		case "revenue", "receita", "income":
			typ = core.CategoryRevenue
		}
		cat := core.Category{ID: id, Name: safeGet(cols, 1), Color: safeGet(cols, 2), Type: typ}
		if err := cat.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if p := safeGet(cols, 4); p != "" {
			parents[len(out)] = p
		}
		out = append(out, cat)
	}

	byName := make(map[string]int64, len(out))
	for _, c := range out {
		byName[strings.ToLower(c.Name)] = c.ID
	}
	for idx, p := range parents {
		if id, err := strconv.ParseInt(p, 10, 64); err == nil {
			out[idx].ParentID = core.Int64Ptr(id)
		} else if id, ok := byName[strings.ToLower(p)]; ok {
			out[idx].ParentID = core.Int64Ptr(id)
		}
	}
	return out, nil
}

// parseTransactions reads Date, Description, Amount, Category, Account,
// CreditCard. Accounts and cards are identified by name and numbered in
// order of first appearance. Unreadable rows are returned as rowErrors and
// left out.
func parseTransactions(rows [][]interface{}, categories []core.Category) (*workbook, []rowError) {
	wb := &workbook{categories: categories}
	catByName := make(map[string]int64, len(categories))
	catByID := make(map[int64]bool, len(categories))
	for _, c := range categories {
		catByName[strings.ToLower(c.Name)] = c.ID
		catByID[c.ID] = true
	}
	accountIDs := map[string]int64{}
	cardIDs := map[string]int64{}

	var skipped []rowError
	for i, row := range rows {
		cols := toStrings(row)
		if i == 0 && isHeader(cols, "date") {
			continue
		}
		if strings.Join(cols, "") == "" {
			continue
		}
		rowNum := i + 1

		date, err := core.ParseDate(safeGet(cols, 0))
		if err != nil {
			skipped = append(skipped, rowError{rowNum, fmt.Errorf("date %q: %w", safeGet(cols, 0), err)})
			continue
		}
		cents, err := parseAmount(safeGet(cols, 2))
		if err != nil {
			skipped = append(skipped, rowError{rowNum, fmt.Errorf("amount %q: %w", safeGet(cols, 2), err)})
			continue
		}
		catRef := safeGet(cols, 3)
		var categoryID int64
		if id, err := strconv.ParseInt(catRef, 10, 64); err == nil && catByID[id] {
			categoryID = id
		} else if id, ok := catByName[strings.ToLower(catRef)]; ok {
			categoryID = id
		} else {
			skipped = append(skipped, rowError{rowNum, fmt.Errorf("category %q: %w", catRef, core.ErrMissingCategory)})
			continue
		}

		t := core.Transaction{
			ID:                int64(rowNum),
			Description:       safeGet(cols, 1),
			Date:              date,
			Paid:              true,
			AmountCents:       cents,
			TotalInstallments: 1,
			Installment:       1,
			CategoryID:        categoryID,
		}
		if name := safeGet(cols, 4); name != "" {
			id, ok := accountIDs[name]
			if !ok {
				id = int64(len(accountIDs) + 1)
				accountIDs[name] = id
				wb.accounts = append(wb.accounts, core.Account{ID: id, Name: name, Type: core.AccountOther})
			}
			t.AccountID = core.Int64Ptr(id)
		}
		if name := safeGet(cols, 5); name != "" {
			id, ok := cardIDs[name]
			if !ok {
				id = int64(len(cardIDs) + 1)
				cardIDs[name] = id
				wb.cards = append(wb.cards, core.CreditCard{ID: id, Name: name})
			}
			t.CreditCardID = core.Int64Ptr(id)
		}
		wb.transactions = append(wb.transactions, t)
	}
	return wb, skipped
}
