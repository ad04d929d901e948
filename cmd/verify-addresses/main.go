// Command verify-addresses checks stored suppression rows against the
// address type: each row must re-parse to itself, its split and hash
// columns must agree with the address, and the database's domain-major
// order must be the order emailaddr.Compare gives.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ignite/emailtype/internal/emailaddr"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// maxSamples bounds how many offending rows a check reports.
const maxSamples = 5

type checkResult struct {
	Name    string
	Passed  bool
	Detail  string
	Elapsed time.Duration
}

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "FATAL: DATABASE_URL is required")
		os.Exit(1)
	}
	orgID := os.Getenv("ORG_ID")
	if len(os.Args) > 1 {
		orgID = os.Args[1]
	}
	if orgID == "" {
		fmt.Fprintln(os.Stderr, "usage: verify-addresses <org-id>")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(3)

	if err := db.PingContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: cannot connect to database: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=========================================================")
	fmt.Println(" Email address integrity verification")
	fmt.Println("=========================================================")
	fmt.Printf("Organization: %s\n", orgID)
	fmt.Println("---------------------------------------------------------")

	results := runChecks(ctx, db, orgID)
	if !printReport(results) {
		os.Exit(1)
	}
}

func runChecks(ctx context.Context, db *sql.DB, orgID string) []checkResult {
	a := auditRows(ctx, db, orgID)
	return []checkResult{
		a.canonicalResult(),
		a.columnsResult(),
		a.orderResult(),
		checkDomainMajorIndex(ctx, db),
	}
}

func printReport(results []checkResult) bool {
	allPassed := true
	for i, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			allPassed = false
		}
		fmt.Printf("  [%d] %-45s %s  (%s)\n", i+1, r.Name, status, r.Elapsed.Round(time.Millisecond))
		if r.Detail != "" {
			for _, line := range strings.Split(r.Detail, "\n") {
				fmt.Printf("      %s\n", line)
			}
		}
	}
	fmt.Println("=========================================================")
	if allPassed {
		fmt.Println("  OVERALL: PASS")
	} else {
		fmt.Println("  OVERALL: FAIL")
	}
	return allPassed
}

// audit collects per-row findings from one ordered scan.
type audit struct {
	err     error
	rows    int
	elapsed time.Duration

	invalid   []string // rows that fail to parse or are not canonical
	columns   []string // email_local/email_domain/email_hash disagree
	unordered []string // row not strictly greater than its predecessor
	nInvalid  int
	nColumns  int
	nOrder    int
}

func (a *audit) note(list *[]string, count *int, format string, args ...any) {
	*count++
	if len(*list) < maxSamples {
		*list = append(*list, fmt.Sprintf(format, args...))
	}
}

// auditRows scans the org's active rows in the database's domain-major
// order and checks each one against the address type.
func auditRows(ctx context.Context, db *sql.DB, orgID string) *audit {
	start := time.Now()
	a := &audit{}
	defer func() { a.elapsed = time.Since(start) }()

	rows, err := db.QueryContext(ctx, `
		SELECT email, email_local, email_domain, email_hash
		FROM email_suppressions
		WHERE organization_id = $1 AND active = true
		ORDER BY email_domain COLLATE "C", email_local COLLATE "C"`, orgID)
	if err != nil {
		a.err = err
		return a
	}
	defer rows.Close()

	var prev emailaddr.Address
	for rows.Next() {
		var email, local, domain string
		var hash int64
		if err := rows.Scan(&email, &local, &domain, &hash); err != nil {
			a.err = err
			return a
		}
		a.rows++

		addr, err := emailaddr.Parse(email)
		if err != nil {
			a.note(&a.invalid, &a.nInvalid, "%q: %v", email, err)
			continue
		}
		if addr.String() != email {
			a.note(&a.invalid, &a.nInvalid, "%q: stored form is not canonical (%q)", email, addr.String())
		}
		if addr.Local() != local || addr.Domain() != domain {
			a.note(&a.columns, &a.nColumns, "%q: columns say %q @ %q", email, local, domain)
		} else if uint32(hash) != addr.Hash() || hash < 0 {
			a.note(&a.columns, &a.nColumns, "%q: email_hash=%d, want %d", email, hash, addr.Hash())
		}
		if !prev.IsZero() && !prev.Less(addr) {
			a.note(&a.unordered, &a.nOrder, "%q sorts before %q", email, prev.String())
		}
		prev = addr
	}
	a.err = rows.Err()
	return a
}

func (a *audit) result(name string, n int, samples []string) checkResult {
	if a.err != nil {
		return checkResult{Name: name, Detail: fmt.Sprintf("Query error: %v", a.err), Elapsed: a.elapsed}
	}
	if n == 0 {
		return checkResult{Name: name, Passed: true, Detail: fmt.Sprintf("%d rows checked", a.rows), Elapsed: a.elapsed}
	}
	detail := fmt.Sprintf("%d of %d rows:\n%s", n, a.rows, strings.Join(samples, "\n"))
	return checkResult{Name: name, Detail: detail, Elapsed: a.elapsed}
}

func (a *audit) canonicalResult() checkResult {
	return a.result("Rows re-parse to themselves", a.nInvalid, a.invalid)
}

func (a *audit) columnsResult() checkResult {
	return a.result("Split and hash columns agree", a.nColumns, a.columns)
}

func (a *audit) orderResult() checkResult {
	return a.result("SQL order matches address order", a.nOrder, a.unordered)
}

// checkDomainMajorIndex looks for an index on (email_domain, email_local).
func checkDomainMajorIndex(ctx context.Context, db *sql.DB) checkResult {
	start := time.Now()
	name := "Domain-major index exists"

	var idxName, idxDef string
	err := db.QueryRowContext(ctx, `
		SELECT indexname, indexdef
		FROM pg_indexes
		WHERE tablename = 'email_suppressions'
		  AND indexdef ILIKE '%email_domain%email_local%'
		ORDER BY indexname
		LIMIT 1`).Scan(&idxName, &idxDef)
	if err == sql.ErrNoRows {
		return checkResult{Name: name, Detail: "No index covers (email_domain, email_local)", Elapsed: time.Since(start)}
	}
	if err != nil {
		return checkResult{Name: name, Detail: fmt.Sprintf("Query error: %v", err), Elapsed: time.Since(start)}
	}
	return checkResult{Name: name, Passed: true, Detail: fmt.Sprintf("%s: %s", idxName, idxDef), Elapsed: time.Since(start)}
}
