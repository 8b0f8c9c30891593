// Package dropfeed serves published posts and a category-scoped airdrop
// listing, and lets a single administrator publish and maintain both.
//
// Reads only ever see visible items: a post is visible once it is premium
// and has a publish timestamp, an airdrop once it has a publish timestamp
// and a valid category. Writes go through the Service, which validates the
// request, computes the effective publish timestamp and hands the result to
// the repository as a single upsert.
//
// Quick start:
//
//	repo := memory.New()
//	svc, err := dropfeed.New(
//		dropfeed.WithPostRepository(repo),
//		dropfeed.WithAirdropRepository(repo),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	publish := true
//	id, err := svc.UpsertPost(ctx, dropfeed.UpsertPostRequest{
//		Title:   "Daily brief",
//		BodyMD:  "# Markets",
//		Publish: &publish,
//	})
package dropfeed
