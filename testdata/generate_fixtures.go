//go:build ignore

// This program generates the sample workbook and question file used by the
// benchmarks and smoke tests.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/klytics/sheetchat/internal/formats/xlsx"
)

var regions = []string{"East", "West", "North", "South"}
var reps = []string{"Alice", "Bob", "Carol", "Dan", "Erin"}

func main() {
	if err := generateXlsx(); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating sample.xlsx: %v\n", err)
		os.Exit(1)
	}
	if err := generateQuestions(); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating questions.yaml: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Test fixtures generated successfully.")
}

func generateXlsx() error {
	sales := [][]string{{"Order ID", "Region", "Rep", "Sales ($)", "Units"}}
	for i := 0; i < 200; i++ {
		sales = append(sales, []string{
			strconv.Itoa(1000 + i),
			regions[i%len(regions)],
			reps[(i*3)%len(reps)],
			strconv.Itoa(50 + (i*37)%950),
			strconv.Itoa(1 + (i*7)%12),
		})
	}

	wb := &xlsx.Workbook{
		Sheets: []xlsx.Sheet{
			{Name: "Sales", Rows: sales},
			{
				Name: "Targets",
				Rows: [][]string{
					{"Region", "Target"},
					{"East", "25000"},
					{"West", "24000"},
					{"North", "21000"},
					{"South", "26000"},
				},
			},
		},
	}
	return xlsx.WriteFile(wb, "testdata/sample.xlsx")
}

const questions = `name: sample
workbook: sample.xlsx
sheet: Sales
questions:
  - id: rows
    ask: how many rows
    expect_text: "There are 200 rows"
  - id: average
    ask: what is the average sales
    expect_intent: average
  - id: east
    ask: show all from east
    expect_kind: rows
  - id: by-region
    ask: bar chart of sales by region
    expect_kind: chart
  - id: units
    ask: histogram of units
    expect_kind: chart
`

func generateQuestions() error {
	return os.WriteFile("testdata/questions.yaml", []byte(questions), 0644)
}
