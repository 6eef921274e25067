package repositories

import (
	"errors"
	"time"

	"blabber/app/models"

	"github.com/dgraph-io/badger/v4"
)

// CreateComment appends a comment to an existing post
func (e *BadgerEngine) CreateComment(postID uint64, user, content string) (bool, error) {
	err := e.update(func(txn *badger.Txn) error {
		// The parent must exist before anything is written.
		if _, err := getPost(txn, postID); err != nil {
			return err
		}

		seq, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}

		comment := models.Comment{
			PostID:    postID,
			Seq:       seq,
			User:      user,
			Content:   content,
			CreatedAt: time.Now().UTC(),
		}
		data, err := marshalEntity(&comment)
		if err != nil {
			return err
		}

		// Save comment with post ID in key for efficient listing
		return txn.Set(commentKey(postID, seq), data)
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// listComments returns up to max of the most recent comments of a post, oldest first.
func listComments(txn *badger.Txn, postID uint64, max int) ([]models.Comment, error) {
	comments := []models.Comment{}
	if max <= 0 {
		return comments, nil
	}

	prefix := commentPrefix(postID)
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(seekLast(prefix)); it.ValidForPrefix(prefix) && len(comments) < max; it.Next() {
		var comment models.Comment
		if err := it.Item().Value(func(val []byte) error {
			return unmarshalEntity(val, &comment)
		}); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	reverse(comments)
	return comments, nil
}
