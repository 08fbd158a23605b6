package google

import "fmt"

// toTable converts a values matrix as returned by the Sheets API into
// strings. Trailing empty cells are omitted by the API, so rows are
// ragged; the decoder tolerates that.
func toTable(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = toStrings(row)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

func fromTable(table [][]string) [][]interface{} {
	out := make([][]interface{}, len(table))
	for i, row := range table {
		r := make([]interface{}, len(row))
		for j, v := range row {
			r[j] = v
		}
		out[i] = r
	}
	return out
}
