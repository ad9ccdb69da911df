// Package governance runs DuckDB-backed architecture governance queries over
// an astdb index.
package governance

func defaultRules() []Rule {
	return []Rule{
		{
			ID:          "GOV001_CMD_ISOLATION",
			Category:    "architecture",
			Description: "Only command packages may import packages under <module>/cmd",
			Enabled:     true,
			QuerySQL: `
WITH module AS (
    SELECT value AS path FROM run_meta WHERE key = 'module'
)
SELECT
  i.file_path AS file_path,
  i.package_path AS symbol,
  ('imports ' || i.import_path || '; command packages are entry points, not libraries') AS detail,
  i.line AS line
FROM imports i, module m
WHERE (i.import_path = m.path || '/cmd' OR i.import_path LIKE m.path || '/cmd/%')
  AND NOT (i.package_path = m.path || '/cmd' OR i.package_path LIKE m.path || '/cmd/%')
ORDER BY i.file_path, i.line
`,
		},
		{
			ID:          "GOV002_INTERNAL_TEST_HELPERS",
			Category:    "architecture",
			Description: "Non-test code must not import packages named testutil or testhelper",
			Enabled:     true,
			QuerySQL: `
SELECT
  i.file_path AS file_path,
  i.package_path AS symbol,
  ('imports test helper ' || i.import_path) AS detail,
  i.line AS line
FROM imports i
WHERE i.internal
  AND (i.import_path LIKE '%/testutil' OR i.import_path LIKE '%/testhelper')
  AND i.file_path NOT LIKE '%_test.go'
ORDER BY i.file_path, i.line
`,
		},
	}
}
