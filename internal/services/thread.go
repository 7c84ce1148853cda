package services

import "github.com/tbourn/briar-chapel-connect/internal/domain"

// ThreadNode is a comment with its direct replies.
type ThreadNode struct {
	domain.Comment
	Replies []*ThreadNode `json:"replies"`
}

// BuildThread nests a flat, oldest-first comment list. Roots and each
// reply list keep the input order. A comment whose parent is not in the list
// is treated as a root, so replies survive their parent's deletion.
func BuildThread(flat []domain.Comment) []*ThreadNode {
	nodes := make(map[string]*ThreadNode, len(flat))
	for i := range flat {
		nodes[flat[i].ID] = &ThreadNode{Comment: flat[i], Replies: []*ThreadNode{}}
	}

	roots := make([]*ThreadNode, 0, len(flat))
	for i := range flat {
		n := nodes[flat[i].ID]
		if p := flat[i].ParentID; p != nil && *p != flat[i].ID {
			if parent, ok := nodes[*p]; ok {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}
