package main

import (
	"context"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/dot5enko/colstore/manager"
	"github.com/dot5enko/colstore/manager/executor"
	"github.com/dot5enko/colstore/manager/query"
	"github.com/dot5enko/colstore/schema"
	"github.com/fatih/color"
)

func testCycles(n int, label string, testSize int, cb func()) {

	before := time.Now()

	for range n {
		cb()
	}

	after := time.Since(before)

	perCycle := after.Nanoseconds() / int64(n*testSize)
	log.Printf(" %s per row : %d/ns", label, perCycle)
}

func genFakeRows(size int, start time.Time) []schema.Row {

	hosts := []string{"eu-1", "eu-2", "us-1", "ap-1"}
	rows := make([]schema.Row, size)

	for i := 0; i < size; i++ {
		rows[i] = schema.Row{
			"created_at": start.Add(time.Duration(i) * time.Second),
			"host":       hosts[rand.Intn(len(hosts))],
			"value":      rand.Int63n(50000),
			"healthy":    rand.Intn(10) != 0,
		}
	}

	return rows
}

func printResult(label string, res *executor.Result) {
	color.Cyan(" == %s %v", label, res.ColumnNames())
	for _, row := range res.Rows() {
		log.Printf("    %v", row)
	}
}

func main() {

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	path := "./storage"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	declared, err := schema.Declare("health_checks", []schema.SchemaColumn{
		{Name: "created_at", Type: schema.DateTimeFieldType},
		{Name: "host", Type: schema.StringFieldType},
		{Name: "value", Type: schema.Int64FieldType},
		{Name: "healthy", Type: schema.BoolFieldType},
	})
	if err != nil {
		panic(err)
	}

	store, err := manager.Open(manager.StoreConfig{
		PathToStorage: path,
		Schema:        &declared,
		Verbose:       true,
		OnError: func(ingestErr *manager.IngestError) {
			color.Red("ingest: %s", ingestErr.Error())
		},
	})
	if err != nil {
		panic(err)
	}
	defer store.Close()

	const batch = 25_000
	rows := genFakeRows(batch, time.Now().Add(-batch*time.Second))

	testCycles(1, "ingest", batch, func() {
		if ingestErr := store.Ingest(rows); ingestErr != nil {
			panic(ingestErr)
		}
		if flushErr := store.Flush(); flushErr != nil {
			panic(flushErr)
		}
	})

	ctx := context.Background()

	top := query.New().
		Filter("value", query.GreaterThan, 45000).
		Filter("healthy", query.Equals, true).
		Sort(query.Descending, "value").
		Project("created_at", "host", "value").
		Head(5)

	var topResult *executor.Result
	testCycles(1, "filter+sort", store.Stats().ActiveRows, func() {
		res, queryErr := store.Execute(ctx, top)
		if queryErr != nil {
			panic(queryErr)
		}
		topResult = res
	})
	printResult("top values", topResult)

	perHost, err := store.Execute(ctx, query.New().
		GroupByAggregate("host", "value", query.Mean, "avg_value").
		GroupByAggregate("host", "", query.Count, "checks").
		Sort(query.Descending, "avg_value"))
	if err != nil {
		panic(err)
	}
	printResult("per host", perHost)

	deleted, err := store.DeleteWhere(ctx, query.New().Filter("healthy", query.Equals, false))
	if err != nil {
		panic(err)
	}
	color.Yellow(" -- deleted %d unhealthy checks", deleted)

	stats := store.Stats()
	log.Printf(" stats: %+v deleted ratio %.3f", stats, stats.DeletedRatio())

	if _, err = store.CompactIfNeeded(0.05); err != nil {
		panic(err)
	}

	log.Printf(" stats after compaction: %+v", store.Stats())
	log.Printf(" column cache: %+v", store.CacheStats())
}
