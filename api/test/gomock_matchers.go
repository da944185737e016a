package test

import (
	"fmt"

	"github.com/golang/mock/gomock"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

type deploymentMatcher struct {
	ref            string
	deploymentType db.DeploymentType
}

func (m deploymentMatcher) Matches(arg interface{}) bool {
	deployment, ok := arg.(db.Deployment)
	if !ok {
		return false
	}
	return deployment.Status == db.DeploymentRunning && deployment.Ref == m.ref && deployment.Type == m.deploymentType
}

func (m deploymentMatcher) String() string {
	return fmt.Sprintf("running %s deployment of %s", m.deploymentType, m.ref)
}

// RunningDeployment matches a running deployment of the given type at ref
func RunningDeployment(deploymentType db.DeploymentType, ref string) gomock.Matcher {
	return deploymentMatcher{ref: ref, deploymentType: deploymentType}
}

type appIDMatcher string

func (m appIDMatcher) Matches(arg interface{}) bool {
	app, ok := arg.(db.App)
	return ok && app.ID == string(m)
}

func (m appIDMatcher) String() string {
	return fmt.Sprintf("app %s", string(m))
}

// AppWithID matches the app record with the given id
func AppWithID(id string) gomock.Matcher {
	return appIDMatcher(id)
}
