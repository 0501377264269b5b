package cloudrun

import (
	"fmt"
	"strconv"

	"github.com/pulumi/pulumi-docker/sdk/v4/go/docker"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/cloudrun"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/cloudrunv2"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/storage"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"github.com/GregMSThompson/dispatch-backend/infra/common"
	"github.com/GregMSThompson/dispatch-backend/infra/kms"
	"github.com/GregMSThompson/dispatch-backend/infra/secret"
)

// Inputs are resources created elsewhere in the stack that the service needs by name.
type Inputs struct {
	KMSKeyName   pulumi.StringOutput
	UploadBucket pulumi.StringOutput
}

type envVar struct {
	name  string
	value pulumi.StringPtrInput
}

func SetupCloudRun(ctx *pulumi.Context, prov *gcp.Provider, in Inputs, res ...pulumi.Resource) (*serviceaccount.Account, error) {
	img, err := buildImage(ctx, res...)
	if err != nil {
		return nil, err
	}

	srv, err := enableCloudRun(ctx, prov)
	if err != nil {
		return nil, err
	}

	apiSA, err := createServiceAccount(ctx, prov, in)
	if err != nil {
		return nil, err
	}

	smSvc, err := secret.SetupSecretManager(ctx, prov, apiSA)
	if err != nil {
		return nil, err
	}

	intakeKeySecret, err := createSecrets(ctx)
	if err != nil {
		return nil, err
	}

	env := serviceEnv(ctx, in, intakeKeySecret)

	svc, err := createCloudRunService(ctx, img, apiSA, env, prov, srv, smSvc)
	if err != nil {
		return nil, err
	}

	if err := createIntakeSyncJob(ctx, img, apiSA, env, prov, srv); err != nil {
		return nil, err
	}

	if err := setIAMAccessPolicy(ctx, svc, prov); err != nil {
		return nil, err
	}

	return apiSA, nil
}

func buildImage(ctx *pulumi.Context, res ...pulumi.Resource) (*docker.Image, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")
	region := gcpCfg.Require("region")

	hash, err := common.GenerateHash("../")
	if err != nil {
		return nil, err
	}

	return docker.NewImage(ctx, "dispatchImage", &docker.ImageArgs{
		Build: docker.DockerBuildArgs{
			Platform:   pulumi.String("linux/amd64"),
			Context:    pulumi.String(".."),
			Dockerfile: pulumi.String("../cmd/api/Dockerfile"),
		},
		ImageName: pulumi.String(fmt.Sprintf("%s-docker.pkg.dev/%s/dispatch/dispatch-api:%s", region, projectID, hash)),
	},
		pulumi.DependsOn(res),
	)
}

func enableCloudRun(ctx *pulumi.Context, prov *gcp.Provider) (*projects.Service, error) {
	return projects.NewService(ctx, "cloudRunService", &projects.ServiceArgs{
		Service: pulumi.String("run.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
}

func createServiceAccount(ctx *pulumi.Context, prov *gcp.Provider, in Inputs) (*serviceaccount.Account, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")

	apiSA, err := serviceaccount.NewAccount(ctx, "apiServiceAccount", &serviceaccount.AccountArgs{
		AccountId:   pulumi.String("dispatch-api"),
		DisplayName: pulumi.String("Dispatch API Service Account"),
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}
	member := apiSA.Email.ApplyT(func(email string) string {
		return fmt.Sprintf("serviceAccount:%s", email)
	}).(pulumi.StringOutput)

	// drivers, applications, bank accounts and the mail/messages outbox
	_, err = projects.NewIAMMember(ctx, "firestoreAccess", &projects.IAMMemberArgs{
		Role:    pulumi.String("roles/datastore.user"),
		Member:  member,
		Project: pulumi.String(projectID),
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	_, err = storage.NewBucketIAMMember(ctx, "uploadWriter", &storage.BucketIAMMemberArgs{
		Bucket: in.UploadBucket,
		Role:   pulumi.String("roles/storage.objectCreator"),
		Member: member,
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	if err := kms.GrantEncryptDecrypt(ctx, prov, in.KMSKeyName, apiSA); err != nil {
		return nil, err
	}

	return apiSA, nil
}

func serviceEnv(ctx *pulumi.Context, in Inputs, intakeKeySecret pulumi.StringOutput) []envVar {
	gcpCfg := config.New(ctx, "gcp")
	crCfg := config.New(ctx, "cloudrun")
	intakeCfg := config.New(ctx, "intake")
	verifyCfg := config.New(ctx, "verification")

	return []envVar{
		{"PROJECTID", pulumi.String(gcpCfg.Require("project"))},
		{"LOGLEVEL", pulumi.String(crCfg.Require("logLevel"))},
		{"KMSKEYNAME", in.KMSKeyName},
		{"UPLOADBUCKET", in.UploadBucket},
		{"INTAKEURL", pulumi.String(intakeCfg.Require("url"))},
		{"INTAKEAPIKEYSECRET", intakeKeySecret},
		{"VERIFICATIONTTL", pulumi.String(verifyCfg.Get("ttl"))},
		{"RESENDWINDOW", pulumi.String(verifyCfg.Get("resendWindow"))},
	}
}

func createCloudRunService(ctx *pulumi.Context,
	img *docker.Image,
	apiSA *serviceaccount.Account,
	env []envVar,
	prov *gcp.Provider,
	res ...pulumi.Resource) (*cloudrun.Service, error) {
	gcpCfg := config.New(ctx, "gcp")
	crCfg := config.New(ctx, "cloudrun")

	region := gcpCfg.Require("region")
	timeout, _ := strconv.Atoi(crCfg.Require("timeout"))

	envs := cloudrun.ServiceTemplateSpecContainerEnvArray{}
	for _, e := range env {
		envs = append(envs, &cloudrun.ServiceTemplateSpecContainerEnvArgs{
			Name:  pulumi.String(e.name),
			Value: e.value,
		})
	}

	return cloudrun.NewService(ctx, "apiService", &cloudrun.ServiceArgs{
		Location: pulumi.String(region),

		Template: &cloudrun.ServiceTemplateArgs{
			Metadata: &cloudrun.ServiceTemplateMetadataArgs{
				Annotations: pulumi.StringMap{
					"run.googleapis.com/launch-stage":      pulumi.String("BETA"),
					"run.googleapis.com/identity-provider": pulumi.String("firebase"),

					"autoscaling.knative.dev/minScale": pulumi.String(crCfg.Require("minScale")),
					"autoscaling.knative.dev/maxScale": pulumi.String(crCfg.Require("maxScale")),

					"run.googleapis.com/cpu":                   pulumi.String(crCfg.Require("cpu")),
					"run.googleapis.com/memory":                pulumi.String(crCfg.Require("memory")),
					"run.googleapis.com/cpu-throttling":        pulumi.String("true"),
					"run.googleapis.com/container-concurrency": pulumi.String(crCfg.Require("concurrency")),
				},
			},

			Spec: &cloudrun.ServiceTemplateSpecArgs{
				ServiceAccountName: apiSA.Email,
				TimeoutSeconds:     pulumi.Int(timeout),

				Containers: cloudrun.ServiceTemplateSpecContainerArray{
					&cloudrun.ServiceTemplateSpecContainerArgs{
						Image: img.ImageName,
						Ports: cloudrun.ServiceTemplateSpecContainerPortArray{
							&cloudrun.ServiceTemplateSpecContainerPortArgs{
								ContainerPort: pulumi.Int(8080),
							},
						},
						Envs: envs,
					},
				},
			},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
}

// createIntakeSyncJob runs the intake retry binary from the same image.
func createIntakeSyncJob(ctx *pulumi.Context,
	img *docker.Image,
	apiSA *serviceaccount.Account,
	env []envVar,
	prov *gcp.Provider,
	res ...pulumi.Resource) error {
	gcpCfg := config.New(ctx, "gcp")
	region := gcpCfg.Require("region")

	envs := cloudrunv2.JobTemplateTemplateContainerEnvArray{}
	for _, e := range env {
		envs = append(envs, &cloudrunv2.JobTemplateTemplateContainerEnvArgs{
			Name:  pulumi.String(e.name),
			Value: e.value,
		})
	}

	_, err := cloudrunv2.NewJob(ctx, "intakeSyncJob", &cloudrunv2.JobArgs{
		Location: pulumi.String(region),
		Template: &cloudrunv2.JobTemplateArgs{
			Template: &cloudrunv2.JobTemplateTemplateArgs{
				ServiceAccount: apiSA.Email,
				MaxRetries:     pulumi.Int(1),
				Containers: cloudrunv2.JobTemplateTemplateContainerArray{
					&cloudrunv2.JobTemplateTemplateContainerArgs{
						Image:    img.ImageName,
						Commands: pulumi.StringArray{pulumi.String("/app/intakesync")},
						Envs:     envs,
					},
				},
			},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
	return err
}

func setIAMAccessPolicy(ctx *pulumi.Context, svc *cloudrun.Service, prov *gcp.Provider) error {
	gcpCfg := config.New(ctx, "gcp")
	region := gcpCfg.Require("region")

	// requests still pass Identity Platform auth
	_, err := cloudrun.NewIamMember(ctx, "publicInvoker", &cloudrun.IamMemberArgs{
		Service:  svc.Name,
		Location: pulumi.String(region),
		Role:     pulumi.String("roles/run.invoker"),
		Member:   pulumi.String("allUsers"),
	},
		pulumi.Provider(prov),
	)
	return err
}

// createSecrets stores the intake endpoint API key and returns its secret ID.
func createSecrets(ctx *pulumi.Context) (pulumi.StringOutput, error) {
	intakeCfg := config.New(ctx, "intake")
	apiKey := intakeCfg.RequireSecret("apiKey")

	return secret.AddSecret(ctx, "intakeApiKeySecret", "intakeApiKey", apiKey)
}
