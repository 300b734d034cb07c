package main

import (
	"github.com/edneedham/cred/internal/keystore"
	"github.com/edneedham/cred/internal/masterkey"
	"github.com/edneedham/cred/internal/project"
	"github.com/edneedham/cred/internal/target"
)

type doctorReport struct {
	Project     string   `json:"project"`
	ProjectID   string   `json:"project_id"`
	GitRoot     string   `json:"git_root"`
	GitRepo     string   `json:"git_repo"`
	MasterKeyOK bool     `json:"master_key_ok"`
	Keystore    string   `json:"keystore"`
	Targets     []string `json:"targets"`
}

func runDoctor(args []string) int {
	fs, g := newFlagSet("doctor")
	if err := fs.Parse(args); err != nil {
		return flagParseExitCode
	}

	desc, err := project.Find()
	if err != nil {
		emitErr(g.jsonOut, err)
		return 0
	}

	report := doctorReport{
		Project:   desc.Root,
		ProjectID: desc.Config.ID,
		GitRoot:   desc.Config.GitRoot,
		GitRepo:   desc.Config.GitRepo,
		Targets:   target.Names(),
	}

	if _, err := keystore.Resolve(); err == nil {
		report.Keystore = "ok"
	} else {
		report.Keystore = err.Error()
	}

	if key, err := masterkey.Resolve(desc.Config.ID); err == nil {
		report.MasterKeyOK = true
		key.Close()
	}

	emitOK(g.jsonOut, report, func() {
		successf("project: %s (%s)", report.Project, report.ProjectID)
		if report.GitRepo != "" {
			infof("git repo: %s", report.GitRepo)
		}
		if report.MasterKeyOK {
			successf("master key: resolvable")
		} else {
			warnf("master key: not resolvable")
		}
		infof("keystore: %s", report.Keystore)
		infof("registered targets: %v", report.Targets)
	})
	return 0
}
