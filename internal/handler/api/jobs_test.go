// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/scheduler"
)

type fakeJobs struct {
	mu   sync.Mutex
	runs map[string]int
	fail error
}

func (f *fakeJobs) Jobs() []scheduler.JobInfo {
	return []scheduler.JobInfo{{Name: scheduler.JanitorJobName, Schedule: "@daily"}}
}

func (f *fakeJobs) TriggerNow(name string) error {
	if name != scheduler.JanitorJobName {
		return fmt.Errorf("%w: %s", scheduler.ErrJobNotFound, name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[name]++
	return f.fail
}

func TestListJobs(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, env.admin, http.MethodGet, "/api/v1/jobs", nil)
	assertStatusCode(t, w, http.StatusOK)
	var jobs []scheduler.JobInfo
	decodeData(t, w, &jobs)
	if len(jobs) != 1 || jobs[0].Name != scheduler.JanitorJobName {
		t.Errorf("jobs = %+v", jobs)
	}

	for _, caller := range []authz.Caller{authz.Anonymous(), env.user} {
		w = env.do(t, caller, http.MethodGet, "/api/v1/jobs", nil)
		assertStatusCode(t, w, http.StatusForbidden)
	}
}

func TestRunJob(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/v1/jobs/" + scheduler.JanitorJobName + "/run"

	w := env.do(t, env.user, http.MethodPost, path, nil)
	assertStatusCode(t, w, http.StatusForbidden)
	if env.jobs.runs[scheduler.JanitorJobName] != 0 {
		t.Fatal("non-admin triggered a job")
	}

	w = env.do(t, env.admin, http.MethodPost, path, nil)
	assertStatusCode(t, w, http.StatusOK)
	var resp JobRunResponse
	decodeData(t, w, &resp)
	if resp.Status != "completed" || env.jobs.runs[scheduler.JanitorJobName] != 1 {
		t.Errorf("resp = %+v, runs = %d", resp, env.jobs.runs[scheduler.JanitorJobName])
	}

	w = env.do(t, env.admin, http.MethodPost, "/api/v1/jobs/nope/run", nil)
	assertStatusCode(t, w, http.StatusNotFound)

	env.jobs.fail = errors.New("disk gone")
	w = env.do(t, env.admin, http.MethodPost, path, nil)
	assertStatusCode(t, w, http.StatusInternalServerError)
	assertErrorResponse(t, w, "internal_error")
}
