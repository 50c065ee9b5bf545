package invoice

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	var store *Store[Customer]

	BeforeEach(func() {
		store = NewStore[Customer]()
		store.Insert(Customer{ID: "cust_1", CorrelationToken: "1", Name: "Ann"})
		store.Insert(Customer{ID: "cust_2", CorrelationToken: "2", Name: "Bob"})
	})

	Describe("List", func() {
		It("should return records in insertion order", func() {
			Expect(store.List()).To(Equal([]Customer{
				{ID: "cust_1", CorrelationToken: "1", Name: "Ann"},
				{ID: "cust_2", CorrelationToken: "2", Name: "Bob"},
			}))
		})

		It("should return a copy", func() {
			list := store.List()
			list[0].Name = "Mutated"
			Expect(store.List()[0].Name).To(Equal("Ann"))
		})
	})

	Describe("UpdateByID", func() {
		When("the record exists", func() {
			var found bool

			BeforeEach(func() {
				found = store.UpdateByID(Customer{ID: "cust_2", CorrelationToken: "2", Name: "Robert"})
			})

			It("should report the match", func() {
				Expect(found).To(BeTrue())
			})

			It("should replace the record in place", func() {
				Expect(store.List()[1].Name).To(Equal("Robert"))
				Expect(store.Len()).To(Equal(2))
			})
		})

		When("the record does not exist", func() {
			It("should report the miss and change nothing", func() {
				before := store.List()
				Expect(store.UpdateByID(Customer{ID: "cust_9", Name: "Zed"})).To(BeFalse())
				Expect(store.List()).To(Equal(before))
			})
		})

		When("the token changes", func() {
			It("should move the token index", func() {
				Expect(store.UpdateByID(Customer{ID: "cust_1", CorrelationToken: "7", Name: "Ann"})).To(BeTrue())
				_, ok := store.FindByToken("1")
				Expect(ok).To(BeFalse())
				found, ok := store.FindByToken("7")
				Expect(ok).To(BeTrue())
				Expect(found.ID).To(Equal("cust_1"))
			})
		})
	})

	// Duplicate IDs are accepted on insert; the later copy is only a shadow.
	When("a duplicate identifier is inserted", func() {
		BeforeEach(func() {
			store.Insert(Customer{ID: "cust_1", CorrelationToken: "1", Name: "Shadow"})
		})

		It("should keep both entries", func() {
			Expect(store.Len()).To(Equal(3))
		})

		It("should resolve lookups to the first entry", func() {
			found, ok := store.Get("cust_1")
			Expect(ok).To(BeTrue())
			Expect(found.Name).To(Equal("Ann"))

			byToken, ok := store.FindByToken("1")
			Expect(ok).To(BeTrue())
			Expect(byToken.Name).To(Equal("Ann"))
		})

		It("should only ever update the first entry", func() {
			store.UpdateByID(Customer{ID: "cust_1", CorrelationToken: "1", Name: "Annie"})
			list := store.List()
			Expect(list[0].Name).To(Equal("Annie"))
			Expect(list[2].Name).To(Equal("Shadow"))
		})

		It("should count both under the token", func() {
			Expect(store.CountByToken("1")).To(Equal(2))
		})
	})

	Describe("Update", func() {
		It("should change the record in place", func() {
			Expect(store.Update("cust_2", func(c *Customer) { c.PhoneNumber = "555" })).To(BeTrue())
			found, _ := store.Get("cust_2")
			Expect(found).To(Equal(Customer{ID: "cust_2", CorrelationToken: "2", Name: "Bob", PhoneNumber: "555"}))
		})

		It("should not call fn for a missing record", func() {
			called := false
			Expect(store.Update("cust_9", func(*Customer) { called = true })).To(BeFalse())
			Expect(called).To(BeFalse())
		})
	})

	Describe("UpdateByToken", func() {
		It("should change the first record carrying the token", func() {
			Expect(store.UpdateByToken("1", func(c *Customer) bool {
				c.Name = "Annie"
				return true
			})).To(BeTrue())
			Expect(store.List()[0].Name).To(Equal("Annie"))
		})

		It("should report whether fn applied the change", func() {
			Expect(store.UpdateByToken("1", func(*Customer) bool { return false })).To(BeFalse())
		})

		It("should report a missing token", func() {
			Expect(store.UpdateByToken("3", func(*Customer) bool { return true })).To(BeFalse())
		})

		It("should not lose concurrent changes to different fields", func() {
			var wg sync.WaitGroup
			for i := 0; i < 200; i++ {
				wg.Add(2)
				go func() {
					defer wg.Done()
					store.UpdateByToken("1", func(c *Customer) bool {
						c.Name = "Ann"
						return true
					})
				}()
				go func() {
					defer wg.Done()
					store.UpdateByToken("1", func(c *Customer) bool {
						c.PhoneNumber += "1"
						return true
					})
				}()
			}
			wg.Wait()
			found, _ := store.Get("cust_1")
			Expect(found.PhoneNumber).To(HaveLen(200))
		})
	})

	Describe("FindByToken", func() {
		It("should match tokens exactly", func() {
			store.Insert(Customer{ID: "cust_17000", CorrelationToken: "17000", Name: "Long"})
			store.Insert(Customer{ID: "cust_700", CorrelationToken: "700", Name: "Short"})

			found, ok := store.FindByToken("700")
			Expect(ok).To(BeTrue())
			Expect(found.Name).To(Equal("Short"))

			_, ok = store.FindByToken("70")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Get", func() {
		It("should report a missing record", func() {
			_, ok := store.Get("cust_404")
			Expect(ok).To(BeFalse())
		})
	})
})
