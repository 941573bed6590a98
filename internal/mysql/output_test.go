package mysql

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseBatchOutputTabs(t *testing.T) {
	res := ParseBatchOutput("id\tname\n1\tAlice\n2\tBob\n")

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if !res.HasTabs {
		t.Error("expected hasTabs")
	}
	if res.Header != "id\tname" {
		t.Errorf("header = %q", res.Header)
	}
	if !reflect.DeepEqual(res.Rows, []string{"1\tAlice", "2\tBob"}) {
		t.Errorf("rows = %q", res.Rows)
	}
	if res.RowCount != 2 {
		t.Errorf("rowCount = %d", res.RowCount)
	}
	if res.Output != "1\tAlice\n2\tBob" {
		t.Errorf("output = %q", res.Output)
	}
}

func TestParseBatchOutputSingleColumn(t *testing.T) {
	res := ParseBatchOutput("Tables_in_x\nusers\norders")

	if res.HasTabs {
		t.Error("single column output should not report tabs")
	}
	if res.Header != "Tables_in_x" {
		t.Errorf("header = %q", res.Header)
	}
	if !reflect.DeepEqual(res.Rows, []string{"users", "orders"}) {
		t.Errorf("rows = %q", res.Rows)
	}
}

func TestParseBatchOutputHeaderOnly(t *testing.T) {
	res := ParseBatchOutput("Tables_in_empty\n")
	if res.RowCount != 0 || len(res.Rows) != 0 {
		t.Errorf("expected zero rows, got %q", res.Rows)
	}
	if res.Output != "Tables_in_empty" {
		t.Errorf("output = %q", res.Output)
	}
}

func TestParseBatchOutputEmpty(t *testing.T) {
	res := ParseBatchOutput("")
	if !res.Success {
		t.Fatal("empty output is a successful statement")
	}
	if res.Output != "(0 rows)" {
		t.Errorf("output = %q", res.Output)
	}
	if res.Rows == nil {
		t.Error("rows should be an empty slice, not nil")
	}
}

func TestParseBatchOutputDropsClientWarnings(t *testing.T) {
	out := "mysql: [Warning] Using a password on the command line interface can be insecure.\nid\n7\n"
	res := ParseBatchOutput(out)
	if res.Header != "id" {
		t.Errorf("header = %q", res.Header)
	}
	if !reflect.DeepEqual(res.Rows, []string{"7"}) {
		t.Errorf("rows = %q", res.Rows)
	}
}

func TestParseBatchOutputDecodesEscapes(t *testing.T) {
	res := ParseBatchOutput(`note` + "\n" + `a\tb`)
	if !res.HasTabs {
		t.Error("decoded tab should be detected")
	}
	if res.Rows[0] != "a\tb" {
		t.Errorf("row = %q", res.Rows[0])
	}
}

func TestParseBatchOutputKeepsTrailingEmptyColumn(t *testing.T) {
	res := ParseBatchOutput("Field\tType\tNull\tKey\tDefault\tExtra\nid\tint\tNO\tPRI\tNULL\tauto_increment\nname\ttext\tYES\t\tNULL\t\n")
	if res.RowCount != 2 {
		t.Fatalf("rows = %q", res.Rows)
	}
	if got := strings.Count(res.Rows[1], "\t"); got != 5 {
		t.Errorf("last row has %d tabs, want 5: %q", got, res.Rows[1])
	}
}

func TestParseBatchOutputClientErrors(t *testing.T) {
	tests := []struct {
		out  string
		want string
	}{
		{"ERROR 1045 (28000): Access denied", "Access denied"},
		{"ERROR 1045 (28000): Access denied for user 'x'@'localhost' (using password: YES)\n", "Access denied for user 'x'@'localhost' (using password: YES)"},
		{"ERROR 1064 (42000) at line 1: You have an error in your SQL syntax", "You have an error in your SQL syntax"},
		{"mysql: [Warning] Using a password\nERROR 2003 (HY000): Can't connect to MySQL server", "Can't connect to MySQL server"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			res := ParseBatchOutput(tc.out)
			if res.Success {
				t.Fatal("expected failure")
			}
			if res.Error != tc.want {
				t.Errorf("error = %q, want %q", res.Error, tc.want)
			}
		})
	}
}

func TestRowCountMatchesRows(t *testing.T) {
	outputs := []string{"", "h", "h\n1", "a\tb\n1\t2\n3\t4\n\n5\t6"}
	for _, out := range outputs {
		res := ParseBatchOutput(out)
		if res.RowCount != len(res.Rows) {
			t.Errorf("%q: rowCount %d != len(rows) %d", out, res.RowCount, len(res.Rows))
		}
	}
}
