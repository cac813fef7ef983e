package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/billrecon/reconciler/internal/mockdata"
)

func main() {
	seed := flag.Int64("seed", 42, "random seed")
	fromFlag := flag.String("from", "2024-03-01", "first payment day")
	toFlag := flag.String("to", "2024-03-31", "last payment day")
	perDay := flag.Int("per-day", 25, "intake payments per day")
	flag.Parse()

	from, err := time.Parse("2006-01-02", *fromFlag)
	if err != nil {
		fail(err)
	}
	to, err := time.Parse("2006-01-02", *toFlag)
	if err != nil {
		fail(err)
	}

	baseDir := findTestdataDir()
	ds := mockdata.Generate(mockdata.Options{Seed: *seed, From: from, To: to, PerDay: *perDay})

	// Raw ledgers, used for seeding the database.
	writeJSONFile(filepath.Join(baseDir, "intake.json"), ds.Intake)
	fmt.Printf("Generated %d intake rows -> intake.json\n", len(ds.Intake))
	writeJSONFile(filepath.Join(baseDir, "posting.json"), ds.Posting)
	fmt.Printf("Generated %d posting rows -> posting.json\n", len(ds.Posting))

	// The same data in the three import formats.
	f := create(filepath.Join(baseDir, "bank_collections.csv"))
	n, err := mockdata.WriteBankCSV(f, ds.Intake)
	closeOrFail(f, err)
	fmt.Printf("Generated %d bank rows -> bank_collections.csv\n", n)

	f = create(filepath.Join(baseDir, "mpay_collections.txt"))
	n, err = mockdata.WriteMPayPipe(f, ds.Intake)
	closeOrFail(f, err)
	fmt.Printf("Generated %d MPay rows -> mpay_collections.txt\n", n)

	f = create(filepath.Join(baseDir, "billing_export.json"))
	err = mockdata.WriteBillingJSON(f, fmt.Sprintf("EXP-%s", to.Format("2006-01")), to.Add(18*time.Hour), ds.Posting)
	closeOrFail(f, err)
	fmt.Printf("Generated %d postings -> billing_export.json\n", len(ds.Posting))

	fmt.Println("Test data generation complete.")
}

func create(path string) *os.File {
	f, err := os.Create(path)
	if err != nil {
		fail(err)
	}
	return f
}

func closeOrFail(f *os.File, err error) {
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fail(err)
	}
}

func writeJSONFile(path string, v any) {
	f := create(path)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	closeOrFail(f, enc.Encode(v))
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "generate:", err)
	os.Exit(1)
}

func findTestdataDir() string {
	for _, c := range []string{"testdata", filepath.Join("..", "..", "testdata")} {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "testdata"
}
