package storage

import "encoding/binary"

var pseudonymColors = []string{
	"Amber", "Apricot", "Aqua", "Azure", "Beige", "Black", "Blue", "Bronze",
	"Brown", "Cerulean", "Charcoal", "Cobalt", "Copper", "Coral", "Crimson",
	"Cyan", "Emerald", "Gold", "Gray", "Green", "Indigo", "Ivory", "Jade",
	"Lavender", "Lilac", "Lime", "Magenta", "Maroon", "Mauve", "Mint", "Navy",
	"Ochre", "Olive", "Orange", "Orchid", "Peach", "Pink", "Plum", "Purple",
	"Red", "Rose", "Ruby", "Rust", "Saffron", "Sage", "Salmon", "Sand",
	"Scarlet", "Sepia", "Silver", "Tan", "Teal", "Turquoise", "Violet",
	"White", "Yellow",
}

var pseudonymAnimals = []string{
	"Albatross", "Alpaca", "Armadillo", "Badger", "Bat", "Bear", "Beaver",
	"Bee", "Bison", "Butterfly", "Camel", "Capybara", "Cat", "Chameleon",
	"Cheetah", "Cod", "Crab", "Crane", "Crow", "Deer", "Dolphin", "Dove",
	"Duck", "Eagle", "Eel", "Elephant", "Falcon", "Ferret", "Finch",
	"Flamingo", "Fox", "Frog", "Gazelle", "Gecko", "Giraffe", "Goose",
	"Gorilla", "Hare", "Hawk", "Hedgehog", "Heron", "Hippo", "Ibis",
	"Jaguar", "Kangaroo", "Kingfisher", "Koala", "Lemur", "Leopard", "Lion",
	"Llama", "Lobster", "Lynx", "Magpie", "Manatee", "Meerkat", "Mole",
	"Moose", "Narwhal", "Newt", "Octopus", "Okapi", "Otter", "Owl", "Panda",
	"Panther", "Parrot", "Pelican", "Penguin", "Puffin", "Quail", "Rabbit",
	"Raccoon", "Raven", "Seal", "Sturgeon", "Shark", "Sloth", "Sparrow",
	"Squid", "Squirrel", "Stork", "Swan", "Tapir", "Tiger", "Toucan",
	"Turtle", "Walrus", "Weasel", "Whale", "Wolf", "Wombat", "Yak", "Zebra",
}

// Pseudonym builds a "Color Animal" name from random bytes.
func Pseudonym(random [16]byte) string {
	color := binary.BigEndian.Uint64(random[:8])
	animal := binary.BigEndian.Uint64(random[8:])
	return pseudonymColors[color%uint64(len(pseudonymColors))] + " " + pseudonymAnimals[animal%uint64(len(pseudonymAnimals))]
}
