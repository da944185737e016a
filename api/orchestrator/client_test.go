package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/shapeblock/shapeblock-api/api/orchestrator"
	"github.com/shapeblock/shapeblock-api/api/services/connection"
	"github.com/shapeblock/shapeblock-api/api/stacks"
	"github.com/shapeblock/shapeblock-api/internal/db"
	"github.com/stretchr/testify/suite"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	kubefake "k8s.io/client-go/kubernetes/fake"
	"k8s.io/utils/ptr"
)

type ClientTestSuite struct {
	suite.Suite
	dynamic *dynamicfake.FakeDynamicClient
	kube    *kubefake.Clientset
	client  *orchestrator.Client
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) SetupTest() {
	s.dynamic = dynamicfake.NewSimpleDynamicClient(runtime.NewScheme())
	s.kube = kubefake.NewSimpleClientset()
	builder := &orchestrator.Builder{
		ClusterDomain:           "apps.example.com",
		ChartVersion:            "0.4.2",
		Stacks:                  stacks.Default(),
		Credentials:             connection.DefaultCredentials(),
		HelmRepository:          "bitnami",
		HelmRepositoryNamespace: "flux-system",
	}
	s.client = orchestrator.NewClient(s.dynamic, s.kube, builder, time.Second)
}

func anApp() (db.App, db.Project) {
	project := db.Project{ID: "p-1", Name: "shop"}
	app := db.App{
		ID: "a-1", ProjectID: project.ID, Name: "web", Repo: "https://github.com/acme/web", Ref: "main",
		Stack: "node", Replicas: 2, HasLivenessProbe: true,
		Config: db.AppConfig{
			EnvVars: []db.KeyValue{{Key: "ENV", Value: "x"}},
			Secrets: []db.KeyValue{{Key: "TOKEN", Value: "s3cr3t"}},
			Volumes: []db.Volume{{Name: "data", MountPath: "/data", Size: 2}},
		},
		Services: []db.AttachedService{
			{Service: db.Service{Name: "cache", Type: db.ServiceRedis}, ExposedAs: db.ExposedAsURL},
		},
	}
	return app, project
}

func (s *ClientTestSuite) getApplication(namespace, name string) *unstructured.Unstructured {
	obj, err := s.dynamic.Resource(orchestrator.ApplicationResource).Namespace(namespace).Get(context.Background(), name, metav1.GetOptions{})
	s.Require().NoError(err)
	return obj
}

func (s *ClientTestSuite) Test_SubmitApplication_CreatesWhenMissing() {
	app, project := anApp()
	deployment := db.Deployment{ID: "d-1", Type: db.DeploymentCode, Ref: "abc123"}

	s.Require().NoError(s.client.SubmitApplication(context.Background(), app, project, deployment))

	obj := s.getApplication("shop", "web")
	s.Equal("Application", obj.GetKind())
	s.Equal("a-1", obj.GetLabels()[orchestrator.AppIDLabel])

	spec := obj.Object["spec"].(map[string]interface{})
	s.Equal("a-1", spec["appUuid"])
	s.Equal("d-1", spec["deploymentUuid"])
	s.Equal("code", spec["deploymentType"])
	s.Equal("shop", spec["namespace"])
	s.Equal("apps.example.com", spec["clusterDomain"])
	s.Equal("0.4.2", spec["chartVersion"])
	s.EqualValues(2, spec["replicas"])
	s.Equal(true, spec["hasLivenessProbe"])

	revision, _, _ := unstructured.NestedString(obj.Object, "spec", "git", "revision")
	s.Equal("abc123", revision)
	version, _, _ := unstructured.NestedString(obj.Object, "spec", "stack", "version")
	s.Equal("22", version, "unset version defaults to the latest")

	env, _, _ := unstructured.NestedSlice(obj.Object, "spec", "envVars")
	s.Equal([]interface{}{
		map[string]interface{}{"key": "REDIS_URL", "value": "redis://:shapeblock@cache-redis-master"},
		map[string]interface{}{"key": "ENV", "value": "x"},
	}, env)
	volumes, _, _ := unstructured.NestedSlice(obj.Object, "spec", "volumes")
	s.Len(volumes, 1)
	workers, found, _ := unstructured.NestedSlice(obj.Object, "spec", "workers")
	s.True(found)
	s.Empty(workers)
}

func (s *ClientTestSuite) Test_SubmitApplication_UpdatesInPlace() {
	app, project := anApp()
	ctx := context.Background()

	s.Require().NoError(s.client.SubmitApplication(ctx, app, project, db.Deployment{ID: "d-1", Type: db.DeploymentCode, Ref: "abc"}))
	app.Replicas = 4
	s.Require().NoError(s.client.SubmitApplication(ctx, app, project, db.Deployment{ID: "d-2", Type: db.DeploymentConfig, Ref: "abc"}))

	obj := s.getApplication("shop", "web")
	deploymentUUID, _, _ := unstructured.NestedString(obj.Object, "spec", "deploymentUuid")
	s.Equal("d-2", deploymentUUID)
	replicas, _, _ := unstructured.NestedInt64(obj.Object, "spec", "replicas")
	s.Equal(int64(4), replicas)

	var creates, updates int
	for _, action := range s.dynamic.Actions() {
		switch action.GetVerb() {
		case "create":
			creates++
		case "update":
			updates++
		}
	}
	s.Equal(1, creates)
	s.Equal(1, updates)
}

func (s *ClientTestSuite) Test_SubmitApplication_NginxHasNoVersion() {
	app, project := anApp()
	app.Stack = stacks.Nginx

	s.Require().NoError(s.client.SubmitApplication(context.Background(), app, project, db.Deployment{ID: "d-1", Ref: "abc"}))

	_, found, _ := unstructured.NestedString(s.getApplication("shop", "web").Object, "spec", "stack", "version")
	s.False(found)
}

func (s *ClientTestSuite) Test_SubmitApplication_InvalidVersion() {
	app, project := anApp()
	app.StackVersion = "0.10"

	err := s.client.SubmitApplication(context.Background(), app, project, db.Deployment{ID: "d-1", Ref: "abc"})
	s.Error(err)
	s.Empty(s.dynamic.Actions())
}

func (s *ClientTestSuite) Test_DeleteApplication() {
	app, project := anApp()
	ctx := context.Background()
	s.Require().NoError(s.client.SubmitApplication(ctx, app, project, db.Deployment{ID: "d-1", Ref: "abc"}))

	s.Require().NoError(s.client.DeleteApplication(ctx, app, project))
	_, err := s.dynamic.Resource(orchestrator.ApplicationResource).Namespace("shop").Get(ctx, "web", metav1.GetOptions{})
	s.True(k8serrors.IsNotFound(err))

	s.NoError(s.client.DeleteApplication(ctx, app, project), "deleting twice is fine")
}

func (s *ClientTestSuite) Test_SubmitProject_IsClusterScoped() {
	ctx := context.Background()
	project := db.Project{ID: "p-1", Name: "shop", DisplayName: "Shop"}

	s.Require().NoError(s.client.SubmitProject(ctx, project))

	obj, err := s.dynamic.Resource(orchestrator.ProjectResource).Get(ctx, "shop", metav1.GetOptions{})
	s.Require().NoError(err)
	s.Empty(obj.GetNamespace())
	displayName, _, _ := unstructured.NestedString(obj.Object, "spec", "displayName")
	s.Equal("Shop", displayName)
}

func (s *ClientTestSuite) Test_SubmitService_CreatesHelmRelease() {
	ctx := context.Background()
	project := db.Project{ID: "p-1", Name: "shop"}
	service := db.Service{ID: "s-1", Name: "pg", Type: db.ServicePostgres}

	s.Require().NoError(s.client.SubmitService(ctx, service, project))

	obj, err := s.dynamic.Resource(orchestrator.HelmReleaseResource).Namespace("shop").Get(ctx, "pg", metav1.GetOptions{})
	s.Require().NoError(err)
	s.Equal("HelmRelease", obj.GetKind())
	s.Equal("s-1", obj.GetLabels()[orchestrator.ServiceIDLabel])
	chart, _, _ := unstructured.NestedString(obj.Object, "spec", "chart", "spec", "chart")
	s.Equal("postgresql", chart)
	database, _, _ := unstructured.NestedString(obj.Object, "spec", "values", "auth", "database")
	s.Equal("shapeblock", database)
}

func (s *ClientTestSuite) Test_StatefulSetReady() {
	ctx := context.Background()
	_, err := s.kube.AppsV1().StatefulSets("shop").Create(ctx, &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Name: "pg-postgresql", Namespace: "shop"},
		Spec:       appsv1.StatefulSetSpec{Replicas: ptr.To[int32](1)},
		Status:     appsv1.StatefulSetStatus{ReadyReplicas: 0},
	}, metav1.CreateOptions{})
	s.Require().NoError(err)

	ready, err := s.client.StatefulSetReady(ctx, "shop", "pg-postgresql")
	s.Require().NoError(err)
	s.False(ready)

	sts, err := s.kube.AppsV1().StatefulSets("shop").Get(ctx, "pg-postgresql", metav1.GetOptions{})
	s.Require().NoError(err)
	sts.Status.ReadyReplicas = 1
	_, err = s.kube.AppsV1().StatefulSets("shop").UpdateStatus(ctx, sts, metav1.UpdateOptions{})
	s.Require().NoError(err)

	ready, err = s.client.StatefulSetReady(ctx, "shop", "pg-postgresql")
	s.Require().NoError(err)
	s.True(ready)

	ready, err = s.client.StatefulSetReady(ctx, "shop", "missing")
	s.Require().NoError(err)
	s.False(ready)
}

func (s *ClientTestSuite) Test_FollowLogs() {
	ctx := context.Background()
	app, project := anApp()
	for _, pod := range []corev1.Pod{
		{ObjectMeta: metav1.ObjectMeta{Name: "web-pending", Namespace: "shop", Labels: map[string]string{orchestrator.PodAppLabel: app.ID}}, Status: corev1.PodStatus{Phase: corev1.PodPending}},
		{ObjectMeta: metav1.ObjectMeta{Name: "web-running", Namespace: "shop", Labels: map[string]string{orchestrator.PodAppLabel: app.ID}}, Status: corev1.PodStatus{Phase: corev1.PodRunning}},
		{ObjectMeta: metav1.ObjectMeta{Name: "blog", Namespace: "shop", Labels: map[string]string{orchestrator.PodAppLabel: "a-2"}}},
	} {
		_, err := s.kube.CoreV1().Pods("shop").Create(ctx, &pod, metav1.CreateOptions{})
		s.Require().NoError(err)
	}

	var lines []string
	err := s.client.FollowLogs(ctx, app, project, 5*time.Minute, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	s.Require().NoError(err)
	s.Equal([]string{"fake logs"}, lines)

	var logAction bool
	for _, action := range s.kube.Actions() {
		if action.GetSubresource() == "log" {
			logAction = true
		}
	}
	s.True(logAction)
}

func (s *ClientTestSuite) Test_FollowLogs_NoPod() {
	app, project := anApp()

	err := s.client.FollowLogs(context.Background(), app, project, 0, func(string) error { return nil })

	s.ErrorIs(err, orchestrator.ErrNoPod)
}
