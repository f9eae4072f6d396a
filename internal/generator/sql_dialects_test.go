package generator

import (
	"strings"
	"testing"

	"github.com/icetype/icetype/internal/migrate"
	"github.com/icetype/icetype/internal/schema"
)

func TestMySQLCreateTable(t *testing.T) {
	s := buildSchema(t, "Account",
		"id", "uuid!",
		"email", "string#",
		"active", "boolean",
		"tags", "string[]",
		"owner", "-> User",
	)

	got, err := mysqlDialect{}.CreateTable(s)
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	want := "CREATE TABLE IF NOT EXISTS `Account` (\n" +
		"    `id` CHAR(36) NOT NULL UNIQUE,\n" +
		"    `email` VARCHAR(255) NOT NULL,\n" +
		"    `active` TINYINT(1) NOT NULL,\n" +
		"    `tags` JSON NOT NULL,\n" +
		"    `owner_id` CHAR(36) NOT NULL,\n" +
		"    UNIQUE INDEX `idx_Account_email` (`email`)\n" +
		");"

	if got != want {
		t.Fatalf("unexpected DDL:\n%s\n\nwant:\n%s", got, want)
	}
}

func TestMySQLCreateTableFullText(t *testing.T) {
	s := buildSchema(t, "Article",
		"id", "uuid!",
		"body", "text",
		"$fts", []string{"body"},
	)

	got, err := mysqlDialect{}.CreateTable(s)
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	if !strings.Contains(got, "FULLTEXT INDEX `fts_Article_body` (`body`)") {
		t.Fatalf("missing fulltext index:\n%s", got)
	}
}

func TestMySQLAlterColumnRebuild(t *testing.T) {
	m := alterMigration(
		migrate.Operation{
			Kind:   migrate.OpAlterColumn,
			Table:  "User",
			Column: "count",
			Changes: &migrate.ColumnChanges{
				Type:     &migrate.TypeChange{From: "int", To: "long"},
				Nullable: &migrate.NullableChange{From: true, To: false},
				Default:  &migrate.DefaultChange{To: &schema.DefaultValue{Kind: schema.DefaultNumber, Number: "5"}},
			},
		},
		migrate.Operation{Kind: migrate.OpDropIndex, Table: "User", IndexName: "idx_User_email"},
	)

	got, err := mysqlDialect{}.AlterStatements(m)
	if err != nil {
		t.Fatalf("AlterStatements failed: %v", err)
	}

	want := []string{
		"ALTER TABLE `User` MODIFY COLUMN `count` BIGINT NOT NULL;",
		"ALTER TABLE `User` ALTER COLUMN `count` SET DEFAULT 5;",
		"DROP INDEX `idx_User_email` ON `User`;",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d statements, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("statement %d:\n got %s\nwant %s", i, got[i], want[i])
		}
	}
}

func TestMySQLAddColumnArrayLandsInJSON(t *testing.T) {
	m := alterMigration(migrate.Operation{
		Kind:       migrate.OpAddColumn,
		Table:      "Post",
		Column:     "tags",
		ColumnType: "text[]",
	})

	got, err := mysqlDialect{}.AlterStatements(m)
	if err != nil {
		t.Fatalf("AlterStatements failed: %v", err)
	}
	want := "ALTER TABLE `Post` ADD COLUMN `tags` JSON;"
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %v, want [%s]", got, want)
	}
}

func TestSQLiteCreateTable(t *testing.T) {
	s := buildSchema(t, "Log",
		"id", "uuid!",
		"count", "int",
		"ratio", "float",
		"ok", "boolean",
		"meta", "json",
		"payload", "binary",
		"price", "decimal(8,2)",
		"tags", "string[]",
		"owner", "-> User",
	)

	got, err := sqliteDialect{}.CreateTable(s)
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	want := `CREATE TABLE IF NOT EXISTS "Log" (
    "id" TEXT NOT NULL UNIQUE,
    "count" INTEGER NOT NULL,
    "ratio" REAL NOT NULL,
    "ok" INTEGER NOT NULL,
    "meta" TEXT NOT NULL,
    "payload" BLOB NOT NULL,
    "price" NUMERIC NOT NULL,
    "tags" TEXT NOT NULL,
    "owner_id" TEXT NOT NULL REFERENCES "User"
);`

	if got != want {
		t.Fatalf("unexpected DDL:\n%s\n\nwant:\n%s", got, want)
	}
}

func TestSQLiteAddColumnBackfillsNotNull(t *testing.T) {
	nullable := false
	m := alterMigration(migrate.Operation{
		Kind:       migrate.OpAddColumn,
		Table:      "User",
		Column:     "email",
		ColumnType: "string",
		Nullable:   &nullable,
	})

	got, err := sqliteDialect{}.AlterStatements(m)
	if err != nil {
		t.Fatalf("AlterStatements failed: %v", err)
	}
	want := `ALTER TABLE "User" ADD COLUMN "email" TEXT NOT NULL DEFAULT '';`
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %v, want [%s]", got, want)
	}
}

func TestSQLiteRejectsAlterColumn(t *testing.T) {
	m := alterMigration(migrate.Operation{
		Kind:    migrate.OpAlterColumn,
		Table:   "User",
		Column:  "age",
		Changes: &migrate.ColumnChanges{Type: &migrate.TypeChange{From: "int", To: "long"}},
	})

	_, err := sqliteDialect{}.AlterStatements(m)
	if err == nil || !strings.Contains(err.Error(), "sqlite cannot alter column User.age in place") {
		t.Fatalf("expected an alter-column error, got %v", err)
	}
}

func TestSQLiteRejectsConstraints(t *testing.T) {
	m := alterMigration(migrate.Operation{Kind: migrate.OpDropConstraint, Table: "User", ConstraintName: "uq"})

	_, err := sqliteDialect{}.AlterStatements(m)
	if err == nil || !strings.Contains(err.Error(), "does not support constraint changes") {
		t.Fatalf("expected a constraint error, got %v", err)
	}
}

func TestClickHouseCreateTable(t *testing.T) {
	s := buildSchema(t, "Event",
		"id", "uuid!",
		"region", "string",
		"payload", "json?",
		"tags", "string[]",
		"$partitionBy", []string{"region"},
	)

	got, err := clickhouseDialect{}.CreateTable(s)
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	want := "CREATE TABLE IF NOT EXISTS `Event` (\n" +
		"    `id` UUID,\n" +
		"    `region` String,\n" +
		"    `payload` Nullable(String),\n" +
		"    `tags` Array(String)\n" +
		")\n" +
		"ENGINE = MergeTree()\n" +
		"PARTITION BY (`region`)\n" +
		"ORDER BY (`id`);"

	if got != want {
		t.Fatalf("unexpected DDL:\n%s\n\nwant:\n%s", got, want)
	}
}

func TestClickHouseOrderByFallsBackToTuple(t *testing.T) {
	s := buildSchema(t, "Reading", "value", "double", "at", "timestamp")

	got, err := clickhouseDialect{}.CreateTable(s)
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	if !strings.HasSuffix(got, "ORDER BY tuple();") {
		t.Fatalf("expected tuple() ordering key:\n%s", got)
	}
}

func TestClickHouseAlterStatements(t *testing.T) {
	nullable := true
	m := alterMigration(
		migrate.Operation{
			Kind:       migrate.OpAddColumn,
			Table:      "Event",
			Column:     "note",
			ColumnType: "string",
			Nullable:   &nullable,
		},
		migrate.Operation{
			Kind:    migrate.OpAlterColumn,
			Table:   "Event",
			Column:  "count",
			Changes: &migrate.ColumnChanges{Type: &migrate.TypeChange{From: "int", To: "long"}},
		},
		migrate.Operation{Kind: migrate.OpAddIndex, Table: "Event", Columns: []string{"region"}},
	)

	got, err := clickhouseDialect{}.AlterStatements(m)
	if err != nil {
		t.Fatalf("AlterStatements failed: %v", err)
	}

	want := []string{
		"ALTER TABLE `Event` ADD COLUMN IF NOT EXISTS `note` Nullable(String);",
		"ALTER TABLE `Event` MODIFY COLUMN `count` Int64;",
		"ALTER TABLE `Event` ADD INDEX `idx_Event_region` (`region`) TYPE minmax GRANULARITY 1;",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d statements, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("statement %d:\n got %s\nwant %s", i, got[i], want[i])
		}
	}
}

func TestClickHouseRejectsNullabilityAlone(t *testing.T) {
	m := alterMigration(migrate.Operation{
		Kind:    migrate.OpAlterColumn,
		Table:   "Event",
		Column:  "note",
		Changes: &migrate.ColumnChanges{Nullable: &migrate.NullableChange{From: false, To: true}},
	})

	_, err := clickhouseDialect{}.AlterStatements(m)
	if err == nil || !strings.Contains(err.Error(), "cannot change nullability of Event.note") {
		t.Fatalf("expected a nullability error, got %v", err)
	}
}

func TestClickHouseConstraints(t *testing.T) {
	check := alterMigration(migrate.Operation{
		Kind:  migrate.OpAddConstraint,
		Table: "Event",
		Constraint: &migrate.Constraint{
			Kind:       migrate.ConstraintCheck,
			Name:       "positive",
			Expression: "amount > 0",
		},
	})

	got, err := clickhouseDialect{}.AlterStatements(check)
	if err != nil {
		t.Fatalf("AlterStatements failed: %v", err)
	}
	want := "ALTER TABLE `Event` ADD CONSTRAINT `positive` CHECK amount > 0;"
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %v, want [%s]", got, want)
	}

	unique := alterMigration(migrate.Operation{
		Kind:       migrate.OpAddConstraint,
		Table:      "Event",
		Constraint: &migrate.Constraint{Kind: migrate.ConstraintUnique, Name: "uq"},
	})
	_, err = clickhouseDialect{}.AlterStatements(unique)
	if err == nil || !strings.Contains(err.Error(), "only supports check constraints") {
		t.Fatalf("expected a constraint-kind error, got %v", err)
	}
}

func TestDuckDBCreateTable(t *testing.T) {
	s := buildSchema(t, "Metric",
		"id", "uuid!",
		"name", "string",
		"value", "double",
		"tags", "string[]",
		"owner", "-> User",
	)

	got, err := duckdbDialect{}.CreateTable(s)
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	want := `CREATE TABLE IF NOT EXISTS "Metric" (
    "id" UUID NOT NULL UNIQUE,
    "name" VARCHAR NOT NULL,
    "value" DOUBLE NOT NULL,
    "tags" VARCHAR[] NOT NULL,
    "owner_id" UUID NOT NULL
);`

	if got != want {
		t.Fatalf("unexpected DDL:\n%s\n\nwant:\n%s", got, want)
	}
}

func TestDuckDBAlterColumn(t *testing.T) {
	m := alterMigration(migrate.Operation{
		Kind:    migrate.OpAlterColumn,
		Table:   "User",
		Column:  "count",
		Changes: &migrate.ColumnChanges{Type: &migrate.TypeChange{From: "int", To: "long"}},
	})

	got, err := duckdbDialect{}.AlterStatements(m)
	if err != nil {
		t.Fatalf("AlterStatements failed: %v", err)
	}
	want := `ALTER TABLE "User" ALTER COLUMN "count" SET DATA TYPE BIGINT;`
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %v, want [%s]", got, want)
	}
}

func TestDuckDBRejectsConstraints(t *testing.T) {
	m := alterMigration(migrate.Operation{Kind: migrate.OpAddConstraint, Table: "User"})

	_, err := duckdbDialect{}.AlterStatements(m)
	if err == nil || !strings.Contains(err.Error(), "duckdb does not support constraint changes") {
		t.Fatalf("expected a constraint error, got %v", err)
	}
}

func TestTypeScriptInterface(t *testing.T) {
	s := buildSchema(t, "Post",
		"id", "uuid!",
		"title", "string",
		"summary", "text?",
		"views", "int",
		"tags", "string[]",
		"meta", "map<string, int>",
		"attachments", "list<map<string, string>>",
		"lookup", "map<string, int>[]",
		"author", "-> User",
		"comments", "<- Comment.post",
	)

	got, err := typescriptDialect{}.CreateTable(s)
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	want := `export interface Post {
    id: string;
    title: string;
    summary?: string;
    views: number;
    tags: string[];
    meta: Record<string, number>;
    attachments: Record<string, string>[];
    lookup: Array<Record<string, number>>;
    authorId: string;
}`

	if got != want {
		t.Fatalf("unexpected declaration:\n%s\n\nwant:\n%s", got, want)
	}
}

func TestTypeScriptNoFields(t *testing.T) {
	s := buildSchema(t, "Ghost", "posts", "<- Post.author")

	_, err := typescriptDialect{}.CreateTable(s)
	if err == nil || !strings.Contains(err.Error(), "has no fields to declare") {
		t.Fatalf("expected a no-fields error, got %v", err)
	}
}

func TestTypeScriptRejectsMigrations(t *testing.T) {
	m := alterMigration(migrate.Operation{Kind: migrate.OpAddColumn, Table: "Post", Column: "x", ColumnType: "int"})

	_, err := typescriptDialect{}.AlterStatements(m)
	if err == nil || !strings.Contains(err.Error(), "typescript target does not support migrations") {
		t.Fatalf("expected a migrations error, got %v", err)
	}
}
