package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/GregMSThompson/dispatch-backend/infra/cloudrun"
	"github.com/GregMSThompson/dispatch-backend/infra/docker"
	"github.com/GregMSThompson/dispatch-backend/infra/firestore"
	"github.com/GregMSThompson/dispatch-backend/infra/identity"
	"github.com/GregMSThompson/dispatch-backend/infra/kms"
	"github.com/GregMSThompson/dispatch-backend/infra/provider"
	"github.com/GregMSThompson/dispatch-backend/infra/storage"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		// firebase auth for drivers, applicants and staff
		ident, err := identity.SetupIdentity(ctx, prov)
		if err != nil {
			return err
		}

		if err := firestore.SetupFirestore(ctx, prov); err != nil {
			return err
		}

		kmsSvc, err := kms.SetupKMS(ctx, prov)
		if err != nil {
			return err
		}
		keyName, err := kms.CreateKey(ctx, prov, "dispatch", "bank-details")
		if err != nil {
			return err
		}

		bucket, err := storage.CreateUploadBucket(ctx, prov)
		if err != nil {
			return err
		}

		repo, err := docker.CreateCloudrunRepo(ctx, prov)
		if err != nil {
			return err
		}

		_, err = cloudrun.SetupCloudRun(ctx, prov, cloudrun.Inputs{
			KMSKeyName:   keyName,
			UploadBucket: bucket.Name,
		}, ident, kmsSvc, repo)
		return err
	})
}
