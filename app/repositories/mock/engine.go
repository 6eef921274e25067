package mock

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"blabber/app/models"
	"blabber/app/repositories"
)

// Engine is an in-memory repositories.Engine that records every call and
// tracks how many calls overlap, so tests can assert serialized access.
type Engine struct {
	posts    map[uint64]*models.Post
	comments map[uint64][]models.Comment
	nextID   uint64
	nextSeq  uint64
	closed   bool
	calls    []string
	mutex    sync.Mutex

	active    atomic.Int32
	maxActive atomic.Int32

	// Hook, when set, runs at the start of every call with the call name.
	Hook func(call string)
}

var _ repositories.Engine = (*Engine)(nil)

func NewEngine() *Engine {
	return &Engine{
		posts:    make(map[uint64]*models.Post),
		comments: make(map[uint64][]models.Comment),
		nextID:   1,
		nextSeq:  1,
	}
}

// enter records a call and returns the function that ends it.
func (m *Engine) enter(call string) func() {
	n := m.active.Add(1)
	for {
		max := m.maxActive.Load()
		if n <= max || m.maxActive.CompareAndSwap(max, n) {
			break
		}
	}

	m.mutex.Lock()
	m.calls = append(m.calls, call)
	m.mutex.Unlock()

	if m.Hook != nil {
		m.Hook(call)
	}
	return func() { m.active.Add(-1) }
}

// Calls returns the recorded call names in the order they started.
func (m *Engine) Calls() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]string(nil), m.calls...)
}

// MaxConcurrent returns the highest number of calls that ever overlapped.
func (m *Engine) MaxConcurrent() int {
	return int(m.maxActive.Load())
}

// Closed reports whether Close was called.
func (m *Engine) Closed() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.closed
}

// CommentCount returns the number of stored comments.
func (m *Engine) CommentCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	n := 0
	for _, c := range m.comments {
		n += len(c)
	}
	return n
}

// Post returns a stored post for assertions.
func (m *Engine) Post(id uint64) (*models.Post, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	post, ok := m.posts[id]
	return post, ok
}

func (m *Engine) FetchFrontPage(maxPosts int) ([]models.FrontPageEntry, error) {
	defer m.enter("fetch_frontpage")()
	m.mutex.Lock()
	defer m.mutex.Unlock()

	ids := make([]uint64, 0, len(m.posts))
	for id := range m.posts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if maxPosts < 0 {
		maxPosts = 0
	}
	if len(ids) > maxPosts {
		ids = ids[len(ids)-maxPosts:]
	}

	entries := []models.FrontPageEntry{}
	for _, id := range ids {
		entries = append(entries, m.posts[id].Entry())
	}
	return entries, nil
}

func (m *Engine) FetchPost(postID uint64, maxComments int) (*models.PostDetail, error) {
	defer m.enter("fetch_post")()
	m.mutex.Lock()
	defer m.mutex.Unlock()

	post, ok := m.posts[postID]
	if !ok {
		return nil, nil
	}
	comments := m.comments[postID]
	if maxComments < 0 {
		maxComments = 0
	}
	if len(comments) > maxComments {
		comments = comments[len(comments)-maxComments:]
	}
	return &models.PostDetail{
		Post:     *post,
		Comments: append([]models.Comment{}, comments...),
	}, nil
}

func (m *Engine) CreatePost(user, title, content string) (uint64, error) {
	defer m.enter("create_post")()
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return 0, repositories.ErrEngineClosed
	}
	post := &models.Post{
		ID:        m.nextID,
		User:      user,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	m.posts[post.ID] = post
	m.nextID++
	return post.ID, nil
}

func (m *Engine) CreateComment(postID uint64, user, content string) (bool, error) {
	defer m.enter("create_comment")()
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.posts[postID]; !ok {
		return false, nil
	}
	m.comments[postID] = append(m.comments[postID], models.Comment{
		PostID:    postID,
		Seq:       m.nextSeq,
		User:      user,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	m.nextSeq++
	return true, nil
}

func (m *Engine) Dump() (string, error) {
	defer m.enter("dump")()
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var sb strings.Builder
	for id := uint64(1); id < m.nextID; id++ {
		post, ok := m.posts[id]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "post %d: %s\n", id, post.Title)
		for _, c := range m.comments[id] {
			fmt.Fprintf(&sb, "  comment %d: %s\n", c.Seq, c.Content)
		}
	}
	return sb.String(), nil
}

func (m *Engine) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.closed {
		return repositories.ErrEngineClosed
	}
	m.closed = true
	return nil
}
