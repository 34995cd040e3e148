package loader

import "course-advisor/internal/domain"

// SampleDocuments returns the built-in Fall 2025 catalogs used when no corpus files are available.
func SampleDocuments() []domain.SourceDocument {
	return []domain.SourceDocument{
		{
			SourceName: "CS_Catalog_Fall_2025.pdf",
			Department: "Computer Science",
			Page:       1,
			Text: `Computer Science Department - Fall 2025

CS 101 - Introduction to Computer Science
Prerequisites: None
Credits: 3
Description: Introduction to fundamental concepts of computer science including programming, algorithms, and data structures. Students will learn Python programming language and basic problem-solving techniques.

CS 201 - Data Structures and Algorithms
Prerequisites: CS 101
Credits: 4
Description: In-depth study of data structures including arrays, linked lists, stacks, queues, trees, and graphs. Analysis of algorithms and their time/space complexity.

CS 301 - Advanced Machine Learning
Prerequisites: CS 201, MATH 201 (Statistics)
Credits: 3
Description: Advanced topics in machine learning including deep learning, neural networks, and natural language processing. Students will work with Python, TensorFlow, and scikit-learn.`,
		},
		{
			SourceName: "MATH_Catalog_Fall_2025.pdf",
			Department: "Mathematics",
			Page:       1,
			Text: `Mathematics Department - Fall 2025

MATH 101 - Calculus I
Prerequisites: High School Algebra
Credits: 4
Description: Introduction to differential calculus including limits, derivatives, and applications. Foundation course for STEM majors.

MATH 201 - Statistics
Prerequisites: MATH 101
Credits: 3
Description: Introduction to statistical concepts, probability theory, hypothesis testing, and data analysis. Includes practical applications using Python and R.

MATH 301 - Linear Algebra
Prerequisites: MATH 101
Credits: 3
Description: Vector spaces, matrices, eigenvalues, eigenvectors, and linear transformations. Essential for machine learning and computer graphics.`,
		},
		{
			SourceName: "BIO_Catalog_Fall_2025.pdf",
			Department: "Biology",
			Page:       1,
			Text: `Biology Department - Fall 2025

BIO 101 - General Biology
Prerequisites: None
Credits: 4
Description: Introduction to biological principles including cell structure, genetics, evolution, and ecology. Laboratory component included.

BIO 201 - Molecular Biology
Prerequisites: BIO 101, CHEM 101
Credits: 4
Description: Study of biological processes at the molecular level including DNA replication, transcription, and translation.

BIO 401 - Bioinformatics
Prerequisites: BIO 201, CS 101
Credits: 3
Description: Application of computer science techniques to biological data analysis. Combines biology with programming and data visualization using Python and R.`,
		},
	}
}
