package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/idilsaglam/comments/internal/model"
)

// JSON-backed comment storage for the development server. Single file,
// human-readable, rewritten on every change. With no path it is memory-only.

var ErrNotFound = errors.New("comment not found")

type Store struct {
	mu       sync.Mutex
	path     string
	comments []model.Comment
	nextID   int
}

// Open loads path, or seeds the store when path is empty or does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	items, err := load(path)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = Seed()
		if err := save(path, items); err != nil {
			return nil, err
		}
	}
	s.comments = items
	for _, c := range items {
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
	}
	if s.nextID == 0 {
		s.nextID = 1
	}
	return s, nil
}

// List returns comments in storage order; postID > 0 filters by post.
func (s *Store) List(postID int) []model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Comment, 0, len(s.comments))
	for _, c := range s.comments {
		if postID > 0 && c.PostID != postID {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *Store) Get(id int) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return model.Comment{}, ErrNotFound
	}
	return s.comments[i], nil
}

// Create stores c under a fresh id, ignoring any id the caller sent.
func (s *Store) Create(c model.Comment) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextID
	next := append(cloneItems(s.comments), c)
	if err := save(s.path, next); err != nil {
		return model.Comment{}, err
	}
	s.comments = next
	s.nextID++
	return c, nil
}

// Patch overwrites the non-empty fields of patch onto the stored comment.
func (s *Store) Patch(id int, patch model.Comment) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return model.Comment{}, ErrNotFound
	}
	c := s.comments[i]
	if patch.Name != "" {
		c.Name = patch.Name
	}
	if patch.Body != "" {
		c.Body = patch.Body
	}
	if patch.Email != "" {
		c.Email = patch.Email
	}
	if patch.PostID != 0 {
		c.PostID = patch.PostID
	}
	next := cloneItems(s.comments)
	next[i] = c
	if err := save(s.path, next); err != nil {
		return model.Comment{}, err
	}
	s.comments = next
	return c, nil
}

func (s *Store) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	next := cloneItems(s.comments)
	next = append(next[:i], next[i+1:]...)
	if err := save(s.path, next); err != nil {
		return err
	}
	s.comments = next
	return nil
}

func (s *Store) index(id int) int {
	for i, c := range s.comments {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func cloneItems(in []model.Comment) []model.Comment {
	out := make([]model.Comment, len(in), len(in)+1)
	copy(out, in)
	return out
}

// load returns nil, nil when there is nothing to load.
func load(path string) ([]model.Comment, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	items := []model.Comment{}
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func save(path string, items []model.Comment) error {
	if path == "" {
		return nil
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Seed is the fixture a fresh store starts with.
func Seed() []model.Comment {
	return []model.Comment{
		{PostID: 1, ID: 1, Name: "id labore ex et quam laborum", Email: "Eliseo@gardner.biz",
			Body: "laudantium enim quasi est quidem magnam voluptate ipsam eos"},
		{PostID: 1, ID: 2, Name: "quo vero reiciendis velit similique earum", Email: "Jayne_Kuhic@sydney.com",
			Body: "est natus enim nihil est dolore omnis voluptatem numquam"},
		{PostID: 1, ID: 3, Name: "odio adipisci rerum aut animi", Email: "Nikita@garfield.biz",
			Body: "quia molestiae reprehenderit quasi aspernatur aut expedita occaecati aliquam"},
		{PostID: 2, ID: 4, Name: "alias odio sit", Email: "Lew@alysha.tv",
			Body: "non et atque occaecati deserunt quas accusantium unde odit nobis qui voluptatem"},
		{PostID: 2, ID: 5, Name: "vero eaque aliquid doloribus et culpa", Email: "Hayden@althea.biz",
			Body: "harum non quasi et ratione tempore iure ex voluptates in ratione"},
	}
}
