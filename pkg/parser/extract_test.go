package parser

import (
	"reflect"
	"testing"
)

func TestParseMemoryQuantity(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"12.79 mb", 12.79},
		{"1 gb", 1024},
		{"512 kb", 0.5},
		{"2048kb", 2},
		{"100", 100},    // no unit defaults to mb
		{"3,5 mb", 3.5}, // comma decimal separator
		{"7 tb", 7},     // unrecognized unit defaults to mb
		{"garbage", 0},  // no numeric value
		{"", 0},
	}

	for _, tt := range tests {
		if got := ParseMemoryQuantity(tt.input); got != tt.want {
			t.Errorf("ParseMemoryQuantity(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestExtractExecutionTime(t *testing.T) {
	got, ok := ExtractExecutionTime("Tempo Execução: 0.25 segundo(s)")
	if !ok {
		t.Fatal("expected execution time to be found")
	}
	if got != 0.25 {
		t.Errorf("ExtractExecutionTime = %v, want 0.25", got)
	}

	got, ok = ExtractExecutionTime("Tempo Execução: 1,5 segundos")
	if !ok || got != 1.5 {
		t.Errorf("ExtractExecutionTime = %v, %v, want 1.5, true", got, ok)
	}

	if _, ok := ExtractExecutionTime("no label here"); ok {
		t.Error("expected no execution time without the label")
	}
}

func TestExtractRecordsReturned(t *testing.T) {
	got, ok := ExtractRecordsReturned("Registros Retornados: 150")
	if !ok {
		t.Fatal("expected record count to be found")
	}
	if got != 150 {
		t.Errorf("ExtractRecordsReturned = %d, want 150", got)
	}

	if _, ok := ExtractRecordsReturned("Registros: 150"); ok {
		t.Error("expected no record count without the full label")
	}
}

func TestDetectQueryType(t *testing.T) {
	tests := []struct {
		sql  string
		want QueryType
	}{
		{"SELECT * FROM orders", QueryTypeSelect},
		{"  select id from t", QueryTypeSelect},
		{"INSERT INTO orders VALUES (1)", QueryTypeInsert},
		{"update orders set total = 0", QueryTypeUpdate},
		{"DELETE FROM orders", QueryTypeDelete},
		{"CREATE TABLE orders (id int)", QueryTypeOther},
		{"", QueryTypeOther},
	}

	for _, tt := range tests {
		if got := DetectQueryType(tt.sql); got != tt.want {
			t.Errorf("DetectQueryType(%q) = %v, want %v", tt.sql, got, tt.want)
		}
	}
}

func TestExtractTables(t *testing.T) {
	sql := "SELECT o.id FROM Orders o JOIN Customers c ON c.id = o.customer_id JOIN orders o2 ON o2.id = o.id"
	got := ExtractTables(sql)
	want := []string{"customers", "orders"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractTables = %v, want %v", got, want)
	}

	got = ExtractTables("UPDATE estoque SET qtd = 0")
	if !reflect.DeepEqual(got, []string{"estoque"}) {
		t.Errorf("ExtractTables = %v, want [estoque]", got)
	}

	if got := ExtractTables("no sql here"); len(got) != 0 {
		t.Errorf("ExtractTables = %v, want empty", got)
	}
}

func TestParseBindParameters(t *testing.T) {
	binds, ok := ParseBindParameters("Binds: ['cliente_id' => 42, 'nome' => 'Ana', 'valor' => 10.5]")
	if !ok {
		t.Fatal("expected bind parameters to be found")
	}

	if got := binds["cliente_id"]; !got.IsInt || got.Int != 42 {
		t.Errorf("cliente_id = %+v, want integer 42", got)
	}
	if got := binds["nome"]; got.IsInt || got.Str != "Ana" {
		t.Errorf("nome = %+v, want string Ana", got)
	}
	// Non-integer numerics stay strings
	if got := binds["valor"]; got.IsInt {
		t.Errorf("valor = %+v, want string", got)
	}

	if _, ok := ParseBindParameters("no pairs here"); ok {
		t.Error("expected no bind parameters without pairs")
	}
}

func TestStripMarkup(t *testing.T) {
	got := StripMarkup("before <b>bold</b> after <br/>")
	want := "before bold after "
	if got != want {
		t.Errorf("StripMarkup = %q, want %q", got, want)
	}
}

func TestCleanSQL(t *testing.T) {
	got := CleanSQL("SELECT *<br>  FROM   orders<BR/> WHERE id = 1")
	want := "SELECT *\nFROM orders\nWHERE id = 1"
	if got != want {
		t.Errorf("CleanSQL = %q, want %q", got, want)
	}

	got = CleanSQL("  <i>SELECT 1</i>  ")
	if got != "SELECT 1" {
		t.Errorf("CleanSQL = %q, want %q", got, "SELECT 1")
	}
}
