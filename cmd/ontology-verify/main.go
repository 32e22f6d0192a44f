// Command ontology-verify audits an ontology store for referential damage
// that the runtime constraints cannot fully express: orphaned property rows,
// dangling domain memberships, missing owner objects, value rows stored under
// the wrong column, and descriptors whose type URIs no longer resolve.
//
// The target database is selected by the same ONTOCORE_STORAGE_* environment
// variables the engine reads.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"ontocore/internal/core"
	"ontocore/internal/infra/persistence"
	"ontocore/pkg/ontology"
)

var exitFunc = os.Exit

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ontology-verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		maxFindings int
		quiet       bool
	)
	fs.IntVar(&maxFindings, "max-findings", 100, "stop reporting after this many findings per check (0 = unlimited)")
	fs.BoolVar(&quiet, "quiet", false, "suppress per-check progress, print findings only")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	db, err := core.OpenDatabase(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "open store: %v\n", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	total, err := run(ctx, db, stdout, maxFindings, quiet)
	if err != nil {
		fmt.Fprintf(stderr, "Store verification failed: %v\n", err)
		return 1
	}
	if total > 0 {
		fmt.Fprintf(stdout, "Store verification found %d problem(s).\n", total)
		return 1
	}
	fmt.Fprintln(stdout, "Store verification passed.")
	return 0
}

// check pairs a description with a query whose every result row is a finding.
// Each returned row is a single preformatted text column.
type check struct {
	name  string
	query string
}

var checks = []check{
	{
		name: "orphaned property values",
		query: `SELECT 'ObjectProperty(ObjectId=' || op.ObjectId || ', PropertyId=' || op.PropertyId || ') references a missing row'
			FROM ObjectProperty op
			LEFT JOIN OntologyObject o ON o.ObjectId = op.ObjectId
			LEFT JOIN PropertyDescriptor pd ON pd.PropertyId = op.PropertyId
			WHERE o.ObjectId IS NULL OR pd.PropertyId IS NULL`,
	},
	{
		name: "dangling domain memberships",
		query: `SELECT 'PropertyDomain(PropertyId=' || m.PropertyId || ', DomainId=' || m.DomainId || ') references a missing descriptor'
			FROM PropertyDomain m
			LEFT JOIN PropertyDescriptor pd ON pd.PropertyId = m.PropertyId
			LEFT JOIN DomainDescriptor dd ON dd.DomainId = m.DomainId
			WHERE pd.PropertyId IS NULL OR dd.DomainId IS NULL`,
	},
	{
		name: "missing owner objects",
		query: `SELECT 'OntologyObject(' || o.ObjectURI || ') owner id ' || o.OwnerObjectId || ' does not exist'
			FROM OntologyObject o
			LEFT JOIN OntologyObject owner ON owner.ObjectId = o.OwnerObjectId
			WHERE o.OwnerObjectId IS NOT NULL AND owner.ObjectId IS NULL`,
	},
	{
		name: "value rows with conflicting columns",
		query: `SELECT 'ObjectProperty(ObjectId=' || ObjectId || ', PropertyId=' || PropertyId || ') fills more than one value column'
			FROM ObjectProperty
			WHERE (CASE WHEN StringValue IS NOT NULL THEN 1 ELSE 0 END)
			    + (CASE WHEN FloatValue IS NOT NULL THEN 1 ELSE 0 END)
			    + (CASE WHEN DateTimeValue IS NOT NULL THEN 1 ELSE 0 END) > 1`,
	},
	{
		name: "empty value rows",
		query: `SELECT 'ObjectProperty(ObjectId=' || ObjectId || ', PropertyId=' || PropertyId || ') carries no value and no indicator'
			FROM ObjectProperty
			WHERE StringValue IS NULL AND FloatValue IS NULL AND DateTimeValue IS NULL
			  AND (MvIndicator IS NULL OR MvIndicator = '')`,
	},
	{
		name: "value rows stored under the wrong column",
		query: `SELECT 'ObjectProperty(ObjectId=' || ObjectId || ', PropertyId=' || PropertyId || ') tag ' || TypeTag || ' does not match its value column'
			FROM ObjectProperty
			WHERE (TypeTag = 's' AND (FloatValue IS NOT NULL OR DateTimeValue IS NOT NULL))
			   OR (TypeTag = 'f' AND (StringValue IS NOT NULL OR DateTimeValue IS NOT NULL))
			   OR (TypeTag = 'd' AND (StringValue IS NOT NULL OR FloatValue IS NOT NULL))`,
	},
}

// run executes every consistency check against db and reports findings to
// out. It returns the total number of findings across all checks.
func run(ctx context.Context, db *persistence.Database, out io.Writer, maxFindings int, quiet bool) (int, error) {
	total := 0
	for _, c := range checks {
		n, err := runCheck(ctx, db, out, c, maxFindings)
		if err != nil {
			return total, fmt.Errorf("%s: %w", c.name, err)
		}
		total += n
		if !quiet {
			fmt.Fprintf(out, "%-45s %d\n", c.name+":", n)
		}
	}

	n, err := checkDescriptorTypes(ctx, db, out, maxFindings)
	if err != nil {
		return total, fmt.Errorf("unresolvable descriptor types: %w", err)
	}
	total += n
	if !quiet {
		fmt.Fprintf(out, "%-45s %d\n", "unresolvable descriptor types:", n)
	}
	return total, nil
}

func runCheck(ctx context.Context, db *persistence.Database, out io.Writer, c check, maxFindings int) (n int, err error) {
	rows, err := db.Query(ctx, db.DB, c.query)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	for rows.Next() {
		var finding string
		if err := rows.Scan(&finding); err != nil {
			return n, err
		}
		n++
		if maxFindings == 0 || n <= maxFindings {
			fmt.Fprintf(out, "  %s\n", finding)
		}
	}
	return n, rows.Err()
}

// checkDescriptorTypes flags descriptors whose concept and range URIs no
// longer map to a known property type. Values stored under such descriptors
// cannot be decoded.
func checkDescriptorTypes(ctx context.Context, db *persistence.Database, out io.Writer, maxFindings int) (n int, err error) {
	rows, err := db.Query(ctx, db.DB,
		"SELECT PropertyURI, Project, ConceptURI, RangeURI FROM PropertyDescriptor")
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	for rows.Next() {
		var uri, project, conceptURI, rangeURI string
		if err := rows.Scan(&uri, &project, &conceptURI, &rangeURI); err != nil {
			return n, err
		}
		if ontology.FromURI(conceptURI, rangeURI) != ontology.TypeInvalid {
			continue
		}
		n++
		if maxFindings == 0 || n <= maxFindings {
			fmt.Fprintf(out, "  PropertyDescriptor(%s, project=%s) range %q is not a recognized type\n", uri, project, rangeURI)
		}
	}
	return n, rows.Err()
}
