package controller

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/idilsaglam/comments/internal/model"
)

var _ = Describe("List", func() {
	var (
		mockCtrl *gomock.Controller
		svc      *MockService
		list     *List
		a        model.Comment
		b        model.Comment
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		svc = NewMockService(mockCtrl)
		list = New(svc)
		a = model.Comment{ID: 1, Name: "A", Body: "x"}
		b = model.Comment{ID: 2, Name: "B", Body: "y"}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	seed := func(comments ...model.Comment) {
		svc.EXPECT().List(gomock.Any()).Return(comments, nil)
		Expect(list.Apply(list.Load(context.Background())())).To(BeTrue())
	}

	Context("load", func() {
		It("should mark the list as loading until the fetch resolves", func() {
			svc.EXPECT().List(gomock.Any()).Return([]model.Comment{a, b}, nil)

			cmd := list.Load(context.Background())
			Expect(list.Loading()).To(BeTrue())

			list.Apply(cmd())

			Expect(list.Loading()).To(BeFalse())
			Expect(list.Comments()).To(Equal([]model.Comment{a, b}))
			Expect(list.Err()).To(BeEmpty())
		})

		It("should surface a failed fetch", func() {
			svc.EXPECT().List(gomock.Any()).
				Return(nil, errors.New("Network Error"))

			list.Apply(list.Load(context.Background())())

			Expect(list.Loading()).To(BeFalse())
			Expect(list.Err()).To(Equal("Network Error"))
			Expect(list.Comments()).To(BeEmpty())
		})

		It("should ignore a cancelled fetch", func() {
			svc.EXPECT().List(gomock.Any()).
				Return(nil, context.Canceled)

			list.Apply(list.Load(context.Background())())

			Expect(list.Err()).To(BeEmpty())
		})

		It("should stop loading when the caller's context cancels the fetch", func() {
			seed(a)
			svc.EXPECT().List(gomock.Any()).
				DoAndReturn(func(ctx context.Context) ([]model.Comment, error) {
					<-ctx.Done()
					return nil, ctx.Err()
				})

			ctx, cancel := context.WithCancel(context.Background())
			cmd := list.Load(ctx)
			cancel()

			Expect(list.Apply(cmd())).To(BeTrue())
			Expect(list.Loading()).To(BeFalse())
			Expect(list.Err()).To(BeEmpty())
			Expect(list.Comments()).To(Equal([]model.Comment{a}))
		})

		It("should cancel the fetch on close and leave state untouched", func() {
			svc.EXPECT().List(gomock.Any()).
				DoAndReturn(func(ctx context.Context) ([]model.Comment, error) {
					<-ctx.Done()
					return nil, ctx.Err()
				})

			cmd := list.Load(context.Background())
			done := make(chan any)
			go func() { done <- cmd() }()

			list.Close()
			msg := <-done

			Expect(list.Apply(msg)).To(BeTrue())
			Expect(list.Err()).To(BeEmpty())
			Expect(list.Comments()).To(BeEmpty())
		})

		It("should drop a successful fetch that resolves after close", func() {
			svc.EXPECT().List(gomock.Any()).Return([]model.Comment{a}, nil)

			cmd := list.Load(context.Background())
			list.Close()
			list.Apply(cmd())

			Expect(list.Comments()).To(BeEmpty())
		})

		It("should drop the result of a superseded fetch", func() {
			svc.EXPECT().List(gomock.Any()).Return([]model.Comment{a}, nil)
			svc.EXPECT().List(gomock.Any()).Return([]model.Comment{b}, nil)

			first := list.Load(context.Background())
			second := list.Load(context.Background())
			firstMsg := first()

			list.Apply(second())
			list.Apply(firstMsg)

			Expect(list.Comments()).To(Equal([]model.Comment{b}))
		})
	})

	Context("add", func() {
		BeforeEach(func() {
			seed(a)
		})

		It("should append the placeholder before the request completes", func() {
			cmd := list.Add()

			Expect(list.Comments()).To(Equal([]model.Comment{a, Placeholder}))

			svc.EXPECT().Create(gomock.Any(), Placeholder).Return(nil)
			list.Apply(cmd())

			Expect(list.Comments()).To(Equal([]model.Comment{a, Placeholder}))
			Expect(list.Err()).To(BeEmpty())
		})

		It("should roll back when the create fails", func() {
			svc.EXPECT().Create(gomock.Any(), Placeholder).
				Return(errors.New("request failed with status code 500"))

			list.Apply(list.Add()())

			Expect(list.Comments()).To(Equal([]model.Comment{a}))
			Expect(list.Err()).To(Equal("request failed with status code 500"))
		})

		It("should keep duplicate placeholders", func() {
			svc.EXPECT().Create(gomock.Any(), Placeholder).Return(nil).Times(2)

			first, second := list.Add(), list.Add()
			list.Apply(first())
			list.Apply(second())

			Expect(list.Comments()).To(Equal([]model.Comment{a, Placeholder, Placeholder}))
		})
	})

	Context("update", func() {
		BeforeEach(func() {
			seed(a)
		})

		It("should append the marker immediately", func() {
			want := model.Comment{ID: 1, Name: "A", Body: "x COMMENT UPDATED!"}
			svc.EXPECT().Update(gomock.Any(), want).Return(nil)

			cmd := list.Update(a)
			Expect(list.Comments()).To(Equal([]model.Comment{want}))

			list.Apply(cmd())
			Expect(list.Comments()).To(Equal([]model.Comment{want}))
		})

		It("should revert when the patch fails", func() {
			svc.EXPECT().Update(gomock.Any(), gomock.Any()).
				Return(errors.New("request failed with status code 404"))

			list.Apply(list.Update(a)())

			Expect(list.Comments()).To(Equal([]model.Comment{a}))
			Expect(list.Err()).NotTo(BeEmpty())
		})

		It("should leave other comments alone", func() {
			list = New(svc)
			seed(a, b)
			svc.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

			list.Apply(list.Update(b)())

			Expect(list.Comments()).To(Equal([]model.Comment{
				a,
				{ID: 2, Name: "B", Body: "y COMMENT UPDATED!"},
			}))
		})
	})

	Context("delete", func() {
		BeforeEach(func() {
			seed(a)
		})

		It("should remove the comment immediately", func() {
			svc.EXPECT().Delete(gomock.Any(), 1).Return(nil)

			cmd := list.Delete(a)
			Expect(list.Comments()).To(BeEmpty())

			list.Apply(cmd())
			Expect(list.Comments()).To(BeEmpty())
		})

		It("should revert when the delete fails", func() {
			svc.EXPECT().Delete(gomock.Any(), 1).
				Return(errors.New("Network Error"))

			list.Apply(list.Delete(a)())

			Expect(list.Comments()).To(Equal([]model.Comment{a}))
			Expect(list.Err()).To(Equal("Network Error"))
		})

		It("should remove every comment sharing the id", func() {
			svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).Times(2)
			svc.EXPECT().Delete(gomock.Any(), 0).Return(nil)

			list.Apply(list.Add()())
			list.Apply(list.Add()())
			list.Apply(list.Delete(Placeholder)())

			Expect(list.Comments()).To(Equal([]model.Comment{a}))
		})
	})

	Context("errors", func() {
		It("should overwrite an earlier error with a later one", func() {
			seed(a)
			svc.EXPECT().Delete(gomock.Any(), 1).Return(errors.New("first"))
			svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("second"))

			list.Apply(list.Delete(a)())
			list.Apply(list.Add()())

			Expect(list.Err()).To(Equal("second"))
			Expect(list.Comments()).To(Equal([]model.Comment{a}))
		})
	})

	Context("after close", func() {
		It("should drop mutation results", func() {
			seed(a)
			svc.EXPECT().Delete(gomock.Any(), 1).Return(errors.New("late"))

			cmd := list.Delete(a)
			list.Close()
			list.Apply(cmd())

			Expect(list.Err()).To(BeEmpty())
			Expect(list.Comments()).To(BeEmpty())
		})

		It("should refuse new operations", func() {
			list.Close()

			Expect(list.Load(context.Background())).To(BeNil())
			Expect(list.Add()).To(BeNil())
			Expect(list.Update(a)).To(BeNil())
			Expect(list.Delete(a)).To(BeNil())
		})
	})

	It("should hand out copies of its state", func() {
		seed(a)

		st := list.State()
		st.Comments[0].Body = "changed"

		Expect(list.Comments()).To(Equal([]model.Comment{a}))
	})

	It("should not claim foreign messages", func() {
		Expect(list.Apply("tick")).To(BeFalse())
	})
})
