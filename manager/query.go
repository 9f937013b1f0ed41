package manager

import (
	"context"

	"github.com/dot5enko/colstore/manager/executor"
	"github.com/dot5enko/colstore/manager/query"
)

func (s *Store) compile(snap *snapshot, plan *query.Plan) (*query.Compiled, error) {
	if plan == nil {
		plan = query.New()
	}
	return query.Compile(plan, snap.schema)
}

// Execute runs the plan against a snapshot of the live segments and materializes the result.
func (s *Store) Execute(ctx context.Context, plan *query.Plan) (*executor.Result, error) {

	snap, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer snap.release()

	compiled, err := s.compile(snap, plan)
	if err != nil {
		return nil, err
	}

	return s.executor.Execute(ctx, compiled, snap.views)
}

// Count returns the number of rows the plan yields without materializing them.
func (s *Store) Count(ctx context.Context, plan *query.Plan) (int, error) {

	snap, err := s.acquire()
	if err != nil {
		return 0, err
	}
	defer snap.release()

	compiled, err := s.compile(snap, plan)
	if err != nil {
		return 0, err
	}

	return s.executor.Count(ctx, compiled, snap.views)
}

// Cursor returns a lazy cursor over the plan result. The snapshot stays pinned
// until the cursor is exhausted or closed.
func (s *Store) Cursor(ctx context.Context, plan *query.Plan) (*executor.Cursor, error) {

	snap, err := s.acquire()
	if err != nil {
		return nil, err
	}

	compiled, err := s.compile(snap, plan)
	if err != nil {
		snap.release()
		return nil, err
	}

	cursor, err := s.executor.Cursor(ctx, compiled, snap.views, snap.release)
	if err != nil {
		snap.release()
		return nil, err
	}
	return cursor, nil
}

// Scan walks every live row in storage order, one segment in memory at a time.
func (s *Store) Scan() *executor.Cursor {

	snap, err := s.acquire()
	if err != nil {
		return executor.FailedCursor(err)
	}

	return executor.Scan(snap.schema, snap.views, snap.release)
}
