package repositories

import (
	"errors"
	"time"

	"blabber/app/models"

	"github.com/dgraph-io/badger/v4"
)

// CreatePost creates a new post
func (e *BadgerEngine) CreatePost(user, title, content string) (uint64, error) {
	var id uint64
	err := e.update(func(txn *badger.Txn) error {
		next, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}

		post := models.Post{
			ID:        next,
			User:      user,
			Title:     title,
			Content:   content,
			CreatedAt: time.Now().UTC(),
		}
		data, err := marshalEntity(&post)
		if err != nil {
			return err
		}
		if err := txn.Set(postKey(next), data); err != nil {
			return err
		}
		id = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FetchFrontPage returns the most recent posts, oldest first.
func (e *BadgerEngine) FetchFrontPage(maxPosts int) ([]models.FrontPageEntry, error) {
	entries := []models.FrontPageEntry{}
	if maxPosts <= 0 {
		return entries, nil
	}

	err := e.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(PostKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(seekLast(prefix)); it.ValidForPrefix(prefix) && len(entries) < maxPosts; it.Next() {
			var post models.Post
			if err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			}); err != nil {
				return err
			}
			entries = append(entries, post.Entry())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reverse(entries)
	return entries, nil
}

// FetchPost retrieves a post with its most recent comments. It returns nil
// if the post does not exist.
func (e *BadgerEngine) FetchPost(postID uint64, maxComments int) (*models.PostDetail, error) {
	var detail models.PostDetail
	err := e.view(func(txn *badger.Txn) error {
		post, err := getPost(txn, postID)
		if err != nil {
			return err
		}
		detail.Post = *post

		detail.Comments, err = listComments(txn, postID, maxComments)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// getPost loads a post inside a transaction.
func getPost(txn *badger.Txn, id uint64) (*models.Post, error) {
	item, err := txn.Get(postKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var post models.Post
	if err := item.Value(func(val []byte) error {
		return unmarshalEntity(val, &post)
	}); err != nil {
		return nil, err
	}
	return &post, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
