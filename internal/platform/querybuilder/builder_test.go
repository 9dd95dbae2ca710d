package querybuilder

import (
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "code").
		From("games").
		Where(Eq("status", "open"), IsNull("deleted_at")).
		OrderBy("id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, code FROM games WHERE status = $1 AND deleted_at IS NULL ORDER BY id LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "open" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilderRangeConditions(t *testing.T) {
	from := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	query, args, err := Select("*").
		From("fixtures").
		Where(
			In("competition_id", []any{"premier-league", "championship"}),
			Gte("kickoff_at", from),
			Lt("kickoff_at", to),
			IsNull("deleted_at"),
		).
		OrderBy("kickoff_at").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT * FROM fixtures WHERE competition_id IN ($1, $2) AND kickoff_at >= $3 AND kickoff_at < $4 AND deleted_at IS NULL ORDER BY kickoff_at"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[2] != from || args[3] != to {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("participants").
		Columns("public_id", "user_id").
		Values("part-1", "user-alice").
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO participants (public_id, user_id) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "part-1" || args[1] != "user-alice" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("rounds").
		Set("status", "resolved").
		SetExpr("updated_at", "NOW()").
		Where(Eq("public_id", "round-1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE rounds SET status = $1, updated_at = NOW() WHERE public_id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "resolved" || args[1] != "round-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}
