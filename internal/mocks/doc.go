// Package mocks provides shared test doubles.
//
// The in-memory stores (MockUserStore, MockProductStore, MockServiceStore)
// behave like the PostgreSQL stores: they evaluate query predicates with
// query.Match, order listings newest first and apply follow/unfollow to both
// users atomically. Testify-based mocks are available where a test needs to
// inject failures or assert on calls.
//
//	users := mocks.NewMockUserStore()
//	svc := service.NewUserService(users, mocks.NewMockPasswordHasher(), logger)
package mocks
