// Package graph holds the in-memory rating graph: users, movies and the
// ratings that connect them.
//
// A Builder collects entities during ingestion and Build hands over a Graph,
// which is read-only and safe to share between goroutines.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Clark-Hu/moviegraph/internal/domain"
)

// ErrUnknownUser is returned when a rating references a user that was never added.
var ErrUnknownUser = errors.New("graph: unknown user")

type movieNode struct {
	movie   domain.Movie
	ratedBy []int
}

type userNode struct {
	user    domain.User
	ratings []domain.Rating
	// byTitle indexes ratings by movie title.
	byTitle map[string]int
}

type network struct {
	movies  map[string]*movieNode
	users   map[int]*userNode
	ratings int
}

func newNetwork() *network {
	return &network{
		movies: make(map[string]*movieNode),
		users:  make(map[int]*userNode),
	}
}

// Builder accumulates users, movies and ratings. It is not safe for concurrent use.
type Builder struct {
	net *network
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{net: newNetwork()}
}

// UserExists reports whether a user with id has been added.
func (b *Builder) UserExists(id int) bool {
	_, ok := b.net.users[id]
	return ok
}

// MovieExists reports whether a movie with title has been added.
func (b *Builder) MovieExists(title string) bool {
	_, ok := b.net.movies[title]
	return ok
}

// AddUser inserts user unless its ID is already present. The first user seen
// for an ID wins; it reports whether the user was inserted.
func (b *Builder) AddUser(user domain.User) bool {
	if b.UserExists(user.ID) {
		return false
	}
	b.net.users[user.ID] = &userNode{user: user, byTitle: make(map[string]int)}
	return true
}

// AddMovie inserts movie unless its title is already present. Genres are fixed
// by the first movie seen for a title.
func (b *Builder) AddMovie(movie domain.Movie) bool {
	if b.MovieExists(movie.Title) {
		return false
	}
	b.net.movies[movie.Title] = &movieNode{movie: movie}
	return true
}

// AddRating registers r on both its user and its movie. Both must already exist.
// A second rating for the same user and movie replaces the value of the first
// and keeps its position.
func (b *Builder) AddRating(r domain.Rating) error {
	u, ok := b.net.users[r.UserID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownUser, r.UserID)
	}
	m, ok := b.net.movies[r.MovieTitle]
	if !ok {
		return &domain.UnknownMovieError{Title: r.MovieTitle}
	}
	if idx, ok := u.byTitle[r.MovieTitle]; ok {
		u.ratings[idx] = r
		return nil
	}
	u.byTitle[r.MovieTitle] = len(u.ratings)
	u.ratings = append(u.ratings, r)
	m.ratedBy = append(m.ratedBy, r.UserID)
	b.net.ratings++
	return nil
}

// Build returns the collected graph and resets the builder, so the returned
// Graph is never written to again.
func (b *Builder) Build() *Graph {
	g := &Graph{net: b.net}
	b.net = newNetwork()
	return g
}

// Graph is a read-only snapshot of the rating graph.
type Graph struct {
	net *network
}

// Stats summarizes graph size.
type Stats struct {
	Users   int
	Movies  int
	Ratings int
}

// UserExists reports whether the graph knows the user id.
func (g *Graph) UserExists(id int) bool {
	_, ok := g.net.users[id]
	return ok
}

// MovieExists reports whether the graph knows the title.
func (g *Graph) MovieExists(title string) bool {
	_, ok := g.net.movies[title]
	return ok
}

// Movie looks up a movie by title.
func (g *Graph) Movie(title string) (domain.Movie, bool) {
	m, ok := g.net.movies[title]
	if !ok {
		return domain.Movie{}, false
	}
	return m.movie, true
}

// MovieTitles returns every known title, sorted.
func (g *Graph) MovieTitles() []string {
	titles := make([]string, 0, len(g.net.movies))
	for title := range g.net.movies {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// RatedBy returns the ids of users who rated title, in the order they were
// first seen rating it. The slice must not be modified.
func (g *Graph) RatedBy(title string) []int {
	m, ok := g.net.movies[title]
	if !ok {
		return nil
	}
	return m.ratedBy
}

// Ratings returns every rating the user gave, in first-rated order. The slice
// must not be modified.
func (g *Graph) Ratings(userID int) []domain.Rating {
	u, ok := g.net.users[userID]
	if !ok {
		return nil
	}
	return u.ratings
}

// Rating returns the user's rating of title.
func (g *Graph) Rating(userID int, title string) (domain.Rating, bool) {
	u, ok := g.net.users[userID]
	if !ok {
		return domain.Rating{}, false
	}
	idx, ok := u.byTitle[title]
	if !ok {
		return domain.Rating{}, false
	}
	return u.ratings[idx], true
}

// Stats reports the number of users, movies and ratings.
func (g *Graph) Stats() Stats {
	return Stats{
		Users:   len(g.net.users),
		Movies:  len(g.net.movies),
		Ratings: g.net.ratings,
	}
}
